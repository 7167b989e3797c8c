package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/audit"
	"github.com/fleetops/fueltrack/internal/auth"
	"github.com/fleetops/fueltrack/internal/handlers"
	"github.com/fleetops/fueltrack/internal/httpx"
	"github.com/fleetops/fueltrack/internal/middleware"
	"github.com/fleetops/fueltrack/internal/services"
)

// Role names used in route guards.
const (
	RoleAdmin         = "admin"
	RoleSiteIncharge  = "site-incharge"
	RoleDieselManager = "diesel-manager"
	RoleOperator      = "operator"
	RoleDriver        = "driver"
)

// New builds the HTTP routing tree. Everything under /api/v1 except login
// requires a bearer token; mutating routes are additionally role-guarded.
func New(db *gorm.DB, mgr *auth.Manager, rec *audit.Recorder) http.Handler {
	fuel := services.NewFuelService(db)
	query := audit.NewQueryService(db)

	authH := handlers.NewAuthHandler(db, mgr, rec)
	userH := handlers.NewUserHandler(db, rec)
	siteH := handlers.NewSiteHandler(db, rec)
	tankH := handlers.NewTankHandler(db, rec)
	vehicleH := handlers.NewVehicleHandler(db, rec)
	supplierH := handlers.NewSupplierHandler(db, rec)
	receivingH := handlers.NewReceivingHandler(db, rec, fuel)
	consumptionH := handlers.NewConsumptionHandler(db, rec, fuel)
	invoiceH := handlers.NewInvoiceHandler(db, rec)
	auditH := handlers.NewAuditLogHandler(query)
	reportH := handlers.NewReportHandler(db, rec, fuel)

	admin := auth.RequireRole(RoleAdmin)
	managers := auth.RequireRole(RoleAdmin, RoleSiteIncharge)
	fuelStaff := auth.RequireRole(RoleAdmin, RoleSiteIncharge, RoleDieselManager)
	anyStaff := auth.RequireRole(RoleAdmin, RoleSiteIncharge, RoleDieselManager, RoleOperator, RoleDriver)

	r := mux.NewRouter()
	r.Use(middleware.Recover, middleware.RequestLog)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.Success(w, http.StatusOK, map[string]any{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auth/login", authH.Login).Methods(http.MethodPost)

	sec := api.NewRoute().Subrouter()
	sec.Use(mgr.Middleware)

	sec.Handle("/auth/register", admin(http.HandlerFunc(authH.Register))).Methods(http.MethodPost)

	// User and role management
	sec.Handle("/users", admin(http.HandlerFunc(userH.List))).Methods(http.MethodGet)
	sec.Handle("/users/{id:[0-9]+}", admin(http.HandlerFunc(userH.Get))).Methods(http.MethodGet)
	sec.Handle("/users/{id:[0-9]+}", admin(http.HandlerFunc(userH.Update))).Methods(http.MethodPut)
	sec.Handle("/users/{id:[0-9]+}", admin(http.HandlerFunc(userH.Delete))).Methods(http.MethodDelete)
	sec.HandleFunc("/roles", userH.Roles).Methods(http.MethodGet)
	sec.HandleFunc("/roles/{id:[0-9]+}", userH.GetRole).Methods(http.MethodGet)
	sec.Handle("/roles", admin(http.HandlerFunc(userH.CreateRole))).Methods(http.MethodPost)
	sec.Handle("/roles/{id:[0-9]+}", admin(http.HandlerFunc(userH.UpdateRole))).Methods(http.MethodPut)
	sec.Handle("/roles/{id:[0-9]+}", admin(http.HandlerFunc(userH.DeleteRole))).Methods(http.MethodDelete)

	// Master data
	sec.HandleFunc("/divisions", siteH.ListDivisions).Methods(http.MethodGet)
	sec.HandleFunc("/divisions/{id:[0-9]+}", siteH.GetDivision).Methods(http.MethodGet)
	sec.Handle("/divisions", admin(http.HandlerFunc(siteH.CreateDivision))).Methods(http.MethodPost)
	sec.Handle("/divisions/{id:[0-9]+}", admin(http.HandlerFunc(siteH.UpdateDivision))).Methods(http.MethodPut)
	sec.Handle("/divisions/{id:[0-9]+}", admin(http.HandlerFunc(siteH.DeleteDivision))).Methods(http.MethodDelete)
	sec.HandleFunc("/sites", siteH.ListSites).Methods(http.MethodGet)
	sec.HandleFunc("/sites/{id:[0-9]+}", siteH.GetSite).Methods(http.MethodGet)
	sec.Handle("/sites", managers(http.HandlerFunc(siteH.CreateSite))).Methods(http.MethodPost)
	sec.Handle("/sites/{id:[0-9]+}", managers(http.HandlerFunc(siteH.UpdateSite))).Methods(http.MethodPut)
	sec.Handle("/sites/{id:[0-9]+}", admin(http.HandlerFunc(siteH.DeleteSite))).Methods(http.MethodDelete)

	sec.HandleFunc("/tanks", tankH.List).Methods(http.MethodGet)
	sec.HandleFunc("/tanks/{id:[0-9]+}", tankH.Get).Methods(http.MethodGet)
	sec.Handle("/tanks", managers(http.HandlerFunc(tankH.Create))).Methods(http.MethodPost)
	sec.Handle("/tanks/{id:[0-9]+}", managers(http.HandlerFunc(tankH.Update))).Methods(http.MethodPut)
	sec.Handle("/tanks/{id:[0-9]+}", admin(http.HandlerFunc(tankH.Delete))).Methods(http.MethodDelete)

	sec.HandleFunc("/vehicles-equipment", vehicleH.List).Methods(http.MethodGet)
	sec.HandleFunc("/vehicles-equipment/{id:[0-9]+}", vehicleH.Get).Methods(http.MethodGet)
	sec.Handle("/vehicles-equipment", managers(http.HandlerFunc(vehicleH.Create))).Methods(http.MethodPost)
	sec.Handle("/vehicles-equipment/{id:[0-9]+}", managers(http.HandlerFunc(vehicleH.Update))).Methods(http.MethodPut)
	sec.Handle("/vehicles-equipment/{id:[0-9]+}", admin(http.HandlerFunc(vehicleH.Delete))).Methods(http.MethodDelete)

	sec.HandleFunc("/suppliers", supplierH.ListSuppliers).Methods(http.MethodGet)
	sec.HandleFunc("/suppliers/{id:[0-9]+}", supplierH.GetSupplier).Methods(http.MethodGet)
	sec.Handle("/suppliers", managers(http.HandlerFunc(supplierH.CreateSupplier))).Methods(http.MethodPost)
	sec.Handle("/suppliers/{id:[0-9]+}", managers(http.HandlerFunc(supplierH.UpdateSupplier))).Methods(http.MethodPut)
	sec.Handle("/suppliers/{id:[0-9]+}", admin(http.HandlerFunc(supplierH.DeleteSupplier))).Methods(http.MethodDelete)
	sec.HandleFunc("/jobs-projects", supplierH.ListJobs).Methods(http.MethodGet)
	sec.HandleFunc("/jobs-projects/{id:[0-9]+}", supplierH.GetJob).Methods(http.MethodGet)
	sec.Handle("/jobs-projects", managers(http.HandlerFunc(supplierH.CreateJob))).Methods(http.MethodPost)
	sec.Handle("/jobs-projects/{id:[0-9]+}", managers(http.HandlerFunc(supplierH.UpdateJob))).Methods(http.MethodPut)
	sec.Handle("/jobs-projects/{id:[0-9]+}", admin(http.HandlerFunc(supplierH.DeleteJob))).Methods(http.MethodDelete)

	// Fuel movements. Next-number preview must register before the {id} route.
	sec.HandleFunc("/diesel-receiving/next-receipt-number", receivingH.NextReceiptNumber).Methods(http.MethodGet)
	sec.HandleFunc("/diesel-receiving", receivingH.List).Methods(http.MethodGet)
	sec.HandleFunc("/diesel-receiving/{id:[0-9]+}", receivingH.Get).Methods(http.MethodGet)
	sec.Handle("/diesel-receiving", fuelStaff(http.HandlerFunc(receivingH.Create))).Methods(http.MethodPost)
	sec.Handle("/diesel-receiving/{id:[0-9]+}", fuelStaff(http.HandlerFunc(receivingH.Update))).Methods(http.MethodPut)
	sec.Handle("/diesel-receiving/{id:[0-9]+}", admin(http.HandlerFunc(receivingH.Delete))).Methods(http.MethodDelete)

	sec.HandleFunc("/diesel-consumption", consumptionH.List).Methods(http.MethodGet)
	sec.HandleFunc("/diesel-consumption/{id:[0-9]+}", consumptionH.Get).Methods(http.MethodGet)
	sec.Handle("/diesel-consumption", anyStaff(http.HandlerFunc(consumptionH.Create))).Methods(http.MethodPost)
	sec.Handle("/diesel-consumption/{id:[0-9]+}", fuelStaff(http.HandlerFunc(consumptionH.Update))).Methods(http.MethodPut)
	sec.Handle("/diesel-consumption/{id:[0-9]+}", admin(http.HandlerFunc(consumptionH.Delete))).Methods(http.MethodDelete)

	// Invoicing
	sec.HandleFunc("/invoices/next-invoice-number", invoiceH.NextInvoiceNumber).Methods(http.MethodGet)
	sec.HandleFunc("/invoices", invoiceH.List).Methods(http.MethodGet)
	sec.HandleFunc("/invoices/{id:[0-9]+}", invoiceH.Get).Methods(http.MethodGet)
	sec.Handle("/invoices", managers(http.HandlerFunc(invoiceH.Create))).Methods(http.MethodPost)
	sec.Handle("/invoices/{id:[0-9]+}", managers(http.HandlerFunc(invoiceH.Update))).Methods(http.MethodPut)
	sec.Handle("/invoices/{id:[0-9]+}", admin(http.HandlerFunc(invoiceH.Delete))).Methods(http.MethodDelete)

	// Audit trail
	sec.Handle("/audit-log", managers(http.HandlerFunc(auditH.List))).Methods(http.MethodGet)
	sec.Handle("/audit-log/{id:[0-9]+}", managers(http.HandlerFunc(auditH.Get))).Methods(http.MethodGet)
	sec.Handle("/audit-log", admin(http.HandlerFunc(auditH.Create))).Methods(http.MethodPost)
	sec.Handle("/audit-log/cleanup-duplicates", admin(http.HandlerFunc(auditH.CleanupDuplicates))).Methods(http.MethodPost)

	// Reporting
	sec.HandleFunc("/reports/fuel-summary", reportH.FuelSummary).Methods(http.MethodGet)
	sec.HandleFunc("/dashboard/stats", reportH.DashboardStats).Methods(http.MethodGet)

	return r
}
