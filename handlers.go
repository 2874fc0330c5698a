package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"milkbook/models"
	"milkbook/pkg/calc"
	"milkbook/pkg/export"
	"milkbook/store"
)

func setupRoutes(r *gin.Engine) {
	r.POST("/register", handleRegister)
	r.POST("/login", handleLogin)

	auth := r.Group("/", jwtAuthMiddleware())
	auth.GET("/me", handleMe)
	auth.POST("/logout", handleLogout)
	auth.POST("/password", handleChangePassword)

	auth.GET("/data", handleData)
	auth.GET("/status", handleStatus)
	auth.POST("/sync", handleSync)

	auth.POST("/people", handleCreatePerson)
	auth.PUT("/people/:id", handleUpdatePerson)
	auth.DELETE("/people/:id", handleDeletePerson)

	auth.POST("/village-entries", handleSaveVillageEntry)
	auth.DELETE("/village-entries/:id", handleDeleteVillageEntry)

	auth.POST("/city-entries", handleSaveCityEntry)
	auth.DELETE("/city-entries/:id", handleDeleteCityEntry)

	auth.POST("/dairy-entries", handleSaveDairyEntry)
	auth.DELETE("/dairy-entries/:id", handleDeleteDairyEntry)

	auth.POST("/payments", handleCreatePayment)
	auth.PUT("/payments/:id", handleUpdatePayment)
	auth.DELETE("/payments/:id", handleDeletePayment)

	auth.GET("/export/csv", handleExportCSV)
	auth.GET("/export/pdf", handleExportPDF)
	auth.GET("/ledger", handleLedger)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("userID", sub)
		if email, ok := claims["email"].(string); ok {
			c.Set("email", email)
		}
		c.Next()
	}
}

// currentContext resolves the caller's data coordinator, loading their
// dataset on first touch after login.
func currentContext(c *gin.Context) *store.DataContext {
	return dataMgr.Context(c.Request.Context(), c.GetString("userID"))
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func handleRegister(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	user, err := registerUser(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "email": user.Email})
}

func handleLogin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	user, err := authenticate(req.Email, req.Password)
	if errors.Is(err, errInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	token, err := issueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	// Load the dataset eagerly so the first /data call is already warm.
	dataMgr.Context(c.Request.Context(), user.ID)
	c.JSON(http.StatusOK, gin.H{"token": token, "id": user.ID, "email": user.Email})
}

func handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"id":    c.GetString("userID"),
		"email": c.GetString("email"),
	})
}

func handleLogout(c *gin.Context) {
	dataMgr.Drop(c.GetString("userID"))
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func handleChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "currentPassword and newPassword are required"})
		return
	}
	if err := changePassword(c.GetString("userID"), req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, errInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password changed"})
}

func handleData(c *gin.Context) {
	c.JSON(http.StatusOK, currentContext(c).Data())
}

func handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, currentContext(c).Status())
}

func handleSync(c *gin.Context) {
	dctx := currentContext(c)
	dctx.SyncData(c.Request.Context())
	c.JSON(http.StatusOK, dctx.Status())
}

type personRequest struct {
	Name     string `json:"name" binding:"required"`
	Value    string `json:"value"`
	Category string `json:"category" binding:"required"`
}

func handleCreatePerson(c *gin.Context) {
	var req personRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and category are required"})
		return
	}
	if !models.ValidCategory(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category must be village, city or dairy"})
		return
	}
	person := currentContext(c).AddPerson(c.Request.Context(), models.Person{
		Name:     req.Name,
		Value:    calc.Num(req.Value),
		Category: req.Category,
	})
	c.JSON(http.StatusCreated, person)
}

func handleUpdatePerson(c *gin.Context) {
	var req personRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and category are required"})
		return
	}
	if !models.ValidCategory(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category must be village, city or dairy"})
		return
	}
	person, ok := currentContext(c).UpdatePerson(c.Request.Context(), c.Param("id"), models.Person{
		Name:     req.Name,
		Value:    calc.Num(req.Value),
		Category: req.Category,
	})
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}
	c.JSON(http.StatusOK, person)
}

func handleDeletePerson(c *gin.Context) {
	currentContext(c).DeletePerson(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// findPerson resolves a person from the caller's loaded dataset and checks
// they belong to the expected business line.
func findPerson(dctx *store.DataContext, personID, category string) (models.Person, bool) {
	for _, p := range dctx.Data().People {
		if p.ID == personID && p.Category == category {
			return p, true
		}
	}
	return models.Person{}, false
}

func entryDate(raw string) string {
	if raw != "" {
		return raw
	}
	return time.Now().Format("2006-01-02")
}

type villageEntryRequest struct {
	PersonID string `json:"personId" binding:"required"`
	Date     string `json:"date"`
	MMilk    string `json:"mMilk"`
	MFat     string `json:"mFat"`
	EMilk    string `json:"eMilk"`
	EFat     string `json:"eFat"`
}

// handleSaveVillageEntry upserts the single entry for (person, date): a
// second save for the same day overwrites the first instead of duplicating.
func handleSaveVillageEntry(c *gin.Context) {
	var req villageEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "personId is required"})
		return
	}
	dctx := currentContext(c)
	person, ok := findPerson(dctx, req.PersonID, models.CategoryVillage)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "village person not found"})
		return
	}

	mMilk, mFat := calc.Num(req.MMilk), calc.Num(req.MFat)
	eMilk, eFat := calc.Num(req.EMilk), calc.Num(req.EFat)
	derived := calc.Village(mMilk, mFat, eMilk, eFat, person.Value)

	entry := models.VillageEntry{
		PersonID:   person.ID,
		PersonName: person.Name,
		Date:       entryDate(req.Date),
		MMilk:      mMilk,
		MFat:       mFat,
		EMilk:      eMilk,
		EFat:       eFat,
		MFatKg:     derived.MFatKg,
		EFatKg:     derived.EFatKg,
		Rate:       person.Value,
		Amount:     derived.Amount,
	}

	if existing, ok := dctx.FindVillageEntry(entry.PersonID, entry.Date); ok {
		updated, _ := dctx.UpdateVillageEntry(c.Request.Context(), existing.ID, entry)
		c.JSON(http.StatusOK, updated)
		return
	}
	c.JSON(http.StatusCreated, dctx.AddVillageEntry(c.Request.Context(), entry))
}

func handleDeleteVillageEntry(c *gin.Context) {
	currentContext(c).DeleteVillageEntry(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type cityEntryRequest struct {
	PersonID string `json:"personId" binding:"required"`
	Date     string `json:"date"`
	Value    string `json:"value"`
}

// handleSaveCityEntry upserts the single entry for (person, date).
func handleSaveCityEntry(c *gin.Context) {
	var req cityEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "personId is required"})
		return
	}
	dctx := currentContext(c)
	person, ok := findPerson(dctx, req.PersonID, models.CategoryCity)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "city person not found"})
		return
	}

	value := calc.Num(req.Value)
	entry := models.CityEntry{
		PersonID:   person.ID,
		PersonName: person.Name,
		Date:       entryDate(req.Date),
		Value:      value,
		Rate:       person.Value,
		Amount:     calc.City(value, person.Value),
	}

	if existing, ok := dctx.FindCityEntry(entry.PersonID, entry.Date); ok {
		updated, _ := dctx.UpdateCityEntry(c.Request.Context(), existing.ID, entry)
		c.JSON(http.StatusOK, updated)
		return
	}
	c.JSON(http.StatusCreated, dctx.AddCityEntry(c.Request.Context(), entry))
}

func handleDeleteCityEntry(c *gin.Context) {
	currentContext(c).DeleteCityEntry(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type dairyEntryRequest struct {
	PersonID string `json:"personId" binding:"required"`
	Date     string `json:"date"`
	Session  string `json:"session" binding:"required"`
	Milk     string `json:"milk"`
	Fat      string `json:"fat"`
	Meter    string `json:"meter"`
}

// handleSaveDairyEntry upserts the single entry for (person, date, session).
func handleSaveDairyEntry(c *gin.Context) {
	var req dairyEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "personId and session are required"})
		return
	}
	if req.Session != models.SessionMorning && req.Session != models.SessionEvening {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session must be morning or evening"})
		return
	}
	dctx := currentContext(c)
	person, ok := findPerson(dctx, req.PersonID, models.CategoryDairy)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "dairy person not found"})
		return
	}

	milk, fat, meter := calc.Num(req.Milk), calc.Num(req.Fat), calc.Num(req.Meter)
	derived := calc.Dairy(milk, fat, meter, person.Value)

	entry := models.DairyEntry{
		PersonID:    person.ID,
		PersonName:  person.Name,
		Date:        entryDate(req.Date),
		Session:     req.Session,
		Milk:        milk,
		Fat:         fat,
		Meter:       meter,
		Rate:        person.Value,
		FatKg:       derived.FatKg,
		MeterKg:     derived.MeterKg,
		FatAmount:   derived.FatAmount,
		MeterAmount: derived.MeterAmount,
		TotalAmount: derived.TotalAmount,
	}

	if existing, ok := dctx.FindDairyEntry(entry.PersonID, entry.Date, entry.Session); ok {
		updated, _ := dctx.UpdateDairyEntry(c.Request.Context(), existing.ID, entry)
		c.JSON(http.StatusOK, updated)
		return
	}
	c.JSON(http.StatusCreated, dctx.AddDairyEntry(c.Request.Context(), entry))
}

func handleDeleteDairyEntry(c *gin.Context) {
	currentContext(c).DeleteDairyEntry(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type paymentRequest struct {
	PersonID string `json:"personId" binding:"required"`
	Date     string `json:"date"`
	Amount   string `json:"amount"`
	Comment  string `json:"comment"`
}

func handleCreatePayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "personId is required"})
		return
	}
	dctx := currentContext(c)
	var person models.Person
	found := false
	for _, p := range dctx.Data().People {
		if p.ID == req.PersonID {
			person, found = p, true
			break
		}
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}
	payment := dctx.AddPayment(c.Request.Context(), models.Payment{
		PersonID:   person.ID,
		PersonName: person.Name,
		Date:       entryDate(req.Date),
		Amount:     calc.Num(req.Amount),
		Comment:    req.Comment,
		Type:       models.PaymentTypeFor(person.Category),
		Category:   person.Category,
	})
	c.JSON(http.StatusCreated, payment)
}

func handleUpdatePayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "personId is required"})
		return
	}
	dctx := currentContext(c)
	var person models.Person
	found := false
	for _, p := range dctx.Data().People {
		if p.ID == req.PersonID {
			person, found = p, true
			break
		}
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}
	payment, ok := dctx.UpdatePayment(c.Request.Context(), c.Param("id"), models.Payment{
		PersonID:   person.ID,
		PersonName: person.Name,
		Date:       entryDate(req.Date),
		Amount:     calc.Num(req.Amount),
		Comment:    req.Comment,
		Type:       models.PaymentTypeFor(person.Category),
		Category:   person.Category,
	})
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	c.JSON(http.StatusOK, payment)
}

func handleDeletePayment(c *gin.Context) {
	currentContext(c).DeletePayment(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// exportRange reads the category/start/end query params shared by the export
// endpoints. Missing bounds widen to cover everything.
func exportRange(c *gin.Context) (category, start, end string, ok bool) {
	category = c.Query("category")
	if !models.ValidCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category must be village, city or dairy"})
		return "", "", "", false
	}
	start = c.DefaultQuery("start", "0000-01-01")
	end = c.DefaultQuery("end", "9999-12-31")
	return category, start, end, true
}

func handleExportCSV(c *gin.Context) {
	category, start, end, ok := exportRange(c)
	if !ok {
		return
	}
	data := currentContext(c).Data()

	var out string
	var err error
	switch category {
	case models.CategoryVillage:
		out, err = export.VillageCSV(export.FilterVillage(data.VillageEntries, start, end))
	case models.CategoryCity:
		out, err = export.CityCSV(export.FilterCity(data.CityEntries, start, end))
	case models.CategoryDairy:
		out, err = export.DairyCSV(export.FilterDairy(data.DairyEntries, start, end))
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+category+`-report.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(out))
}

func handleExportPDF(c *gin.Context) {
	category, start, end, ok := exportRange(c)
	if !ok {
		return
	}
	data := currentContext(c).Data()

	var out []byte
	var err error
	switch category {
	case models.CategoryVillage:
		out, err = export.VillagePDF(export.FilterVillage(data.VillageEntries, start, end), start, end)
	case models.CategoryCity:
		out, err = export.CityPDF(export.FilterCity(data.CityEntries, start, end), start, end)
	case models.CategoryDairy:
		out, err = export.DairyPDF(export.FilterDairy(data.DairyEntries, start, end), start, end)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+category+`-report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", out)
}

// handleLedger returns per-person ledgers as JSON, or as CSV with a running
// balance when format=csv.
func handleLedger(c *gin.Context) {
	category, start, end, ok := exportRange(c)
	if !ok {
		return
	}
	ledgers := export.BuildLedger(currentContext(c).Data(), category, c.Query("personId"), start, end)

	if c.Query("format") == "csv" {
		out, err := export.LedgerCSV(ledgers)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+category+`-ledger.csv"`)
		c.Data(http.StatusOK, "text/csv", []byte(out))
		return
	}
	c.JSON(http.StatusOK, ledgers)
}
