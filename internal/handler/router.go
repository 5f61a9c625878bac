package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aulora-api/internal/middleware"
	"github.com/noah-isme/aulora-api/internal/models"
)

// Handlers groups every HTTP handler mounted by RegisterRoutes.
type Handlers struct {
	Auth       *AuthHandler
	Profile    *ProfileHandler
	Course     *CourseHandler
	Itinerary  *ItineraryHandler
	Enrollment *EnrollmentHandler
	Progress   *ProgressHandler
	Assistant  *AssistantHandler
	Metrics    *MetricsHandler
}

// RegisterRoutes mounts the public and authenticated API on r.
func RegisterRoutes(r gin.IRouter, h Handlers, tokens middleware.TokenValidator) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	r.POST("/login", h.Auth.Login)
	r.GET("/cursos/:id/precio", h.Course.Price)
	r.GET("/itinerarios/:id/precio", h.Itinerary.Price)
	r.GET("/explorar-cursos", h.Course.Explore)
	r.GET("/explorar-itinerarios", h.Itinerary.Explore)
	r.POST("/chatbot", h.Assistant.Reply)

	authed := r.Group("", middleware.JWT(tokens))
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	admin := middleware.RequireRoles(models.RoleAdmin)

	authed.POST("/logout", h.Auth.Logout)

	authed.GET("/perfil", h.Profile.Get)
	authed.PUT("/perfil", h.Profile.Update)
	authed.GET("/perfil/progreso/export", h.Profile.ExportProgress)
	authed.GET("/perfil/pagos", h.Profile.Payments)

	authed.GET("/categorias", h.Course.Categories)
	authed.GET("/cursos", h.Course.List)
	authed.POST("/cursos", staff, h.Course.Create)
	authed.GET("/cursos/:id", h.Course.Get)
	authed.GET("/cursos/:id/modulos", h.Course.Modules)
	authed.POST("/cursos/:id/modulos", staff, h.Course.CreateModule)
	authed.GET("/cursos/:id/progreso", h.Progress.Course)
	authed.POST("/cursos/:id/inscribirse", h.Enrollment.EnrollCourse)
	authed.POST("/courses/:id/inscribirse", h.Enrollment.EnrollCourse)

	authed.GET("/itinerarios", h.Itinerary.List)
	authed.POST("/itinerarios", admin, h.Itinerary.Create)
	authed.GET("/itinerarios/:id", h.Itinerary.Get)
	authed.GET("/itinerarios/:id/progreso", h.Progress.Itinerary)
	authed.POST("/itinerarios/:id/inscribirse", h.Enrollment.EnrollItinerary)
	authed.POST("/itinerarios/:id/pagar", h.Enrollment.Purchase)

	authed.POST("/modulos/:id/completar", h.Progress.CompleteModule)
	authed.GET("/mis-cursos", h.Enrollment.MyCourses)
	authed.GET("/mis-itinerarios", h.Enrollment.MyItineraries)
}
