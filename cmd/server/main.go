package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/crewsync/crewsync/internal/config"
	"github.com/crewsync/crewsync/internal/database"
	"github.com/crewsync/crewsync/internal/handlers"
	"github.com/crewsync/crewsync/internal/jobs"
	"github.com/crewsync/crewsync/internal/push"
	"github.com/crewsync/crewsync/internal/repository"
	"github.com/crewsync/crewsync/internal/scheduler"
	"github.com/crewsync/crewsync/internal/services"
	"github.com/crewsync/crewsync/internal/triggers"
	"github.com/crewsync/crewsync/pkg/logger"
	"github.com/crewsync/crewsync/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger(cfg.LogFile)
	logger.Log.Info("Logger initialized")

	// Connect to MongoDB
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	progressRepo := repository.NewProgressRepository(db)

	// --- Services ---
	userService := services.NewUserService(userRepo)
	notificationService := services.NewNotificationService(notificationRepo)
	groupService := services.NewGroupService(groupRepo)
	taskService := services.NewTaskService(groupRepo, requestRepo, notificationService)
	progressService := services.NewProgressService(progressRepo, notificationService)

	// --- Push delivery ---
	var sender push.Sender = push.NopSender{}
	if cfg.PushEndpoint != "" {
		sender = push.NewHTTPSender(cfg.PushEndpoint, cfg.PushAPIKey)
	}
	registry := push.NewUserRegistry(userRepo)

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(userService, cfg)
	groupHandler := handlers.NewGroupHandler(groupService)
	taskHandler := handlers.NewTaskHandler(taskService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	progressHandler := handlers.NewProgressHandler(progressService)

	// --- Background triggers ---
	// Change stream watchers are the server-side counterpart of the
	// client subscriptions: progress aggregation, membership fanout and
	// push delivery all run decoupled from the request that caused the
	// write.
	watcherCtx := context.Background()
	go triggers.NewRequestWatcher(requestRepo.Collection(), progressService).Run(watcherCtx)
	go triggers.NewGroupWatcher(groupRepo.Collection(), groupRepo, notificationService).Run(watcherCtx)
	go triggers.NewNotificationWatcher(notificationRepo.Collection(), registry, sender).Run(watcherCtx)

	// --- Cron jobs ---
	reconciler := jobs.NewReconciler(requestRepo, groupRepo, progressService)
	scheduler.StartCronJobs(reconciler, notificationService)

	// Initialize Gorilla Mux router
	router := mux.NewRouter()

	// Public user routes
	router.HandleFunc("/users/register", userHandler.RegisterUserHandler).Methods("POST")
	router.HandleFunc("/users/login", userHandler.LoginUserHandler).Methods("POST")

	// Protected user routes
	protectedUserRoutes := router.PathPrefix("/users").Subrouter()
	protectedUserRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedUserRoutes.Use(middleware.UpdateLastActiveMiddleware(userService))
	protectedUserRoutes.HandleFunc("/me/device", userHandler.RegisterDeviceTokenHandler).Methods("PUT")
	protectedUserRoutes.HandleFunc("/{id}", userHandler.GetUserHandler).Methods("GET")

	// Group routes (membership, tasks, completion review)
	protectedGroupRoutes := router.PathPrefix("/groups").Subrouter()
	protectedGroupRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedGroupRoutes.Use(middleware.UpdateLastActiveMiddleware(userService))
	protectedGroupRoutes.HandleFunc("", groupHandler.CreateGroupHandler).Methods("POST")
	protectedGroupRoutes.HandleFunc("", groupHandler.ListGroupsHandler).Methods("GET")
	protectedGroupRoutes.HandleFunc("/{id}", groupHandler.GetGroupHandler).Methods("GET")
	protectedGroupRoutes.HandleFunc("/{id}", groupHandler.EditGroupHandler).Methods("PATCH")
	protectedGroupRoutes.HandleFunc("/{id}", groupHandler.DeleteGroupHandler).Methods("DELETE")
	protectedGroupRoutes.HandleFunc("/{id}/members", groupHandler.AddMemberHandler).Methods("POST")
	protectedGroupRoutes.HandleFunc("/{id}/members/{memberId}", groupHandler.RemoveMemberHandler).Methods("DELETE")
	protectedGroupRoutes.HandleFunc("/{id}/tasks", taskHandler.AssignTaskHandler).Methods("POST")
	protectedGroupRoutes.HandleFunc("/{id}/tasks/{taskId}/submit", taskHandler.SubmitCompletionHandler).Methods("POST")
	protectedGroupRoutes.HandleFunc("/{id}/tasks/{taskId}/review", taskHandler.ReviewCompletionHandler).Methods("POST")
	protectedGroupRoutes.HandleFunc("/{id}/requests", taskHandler.ListGroupRequestsHandler).Methods("GET")

	// Completion requests of the logged-in member
	protectedRequestRoutes := router.PathPrefix("/requests").Subrouter()
	protectedRequestRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedRequestRoutes.HandleFunc("", taskHandler.ListMyRequestsHandler).Methods("GET")

	// Notification routes
	protectedNotificationRoutes := router.PathPrefix("/notifications").Subrouter()
	protectedNotificationRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedNotificationRoutes.HandleFunc("", notificationHandler.GetNotificationsHandler).Methods("GET")
	protectedNotificationRoutes.HandleFunc("/unread", notificationHandler.UnreadCountHandler).Methods("GET")
	protectedNotificationRoutes.HandleFunc("/read-all", notificationHandler.MarkAllReadHandler).Methods("POST")
	protectedNotificationRoutes.HandleFunc("/{id}/read", notificationHandler.MarkAsReadHandler).Methods("POST")

	// Progress routes
	protectedProgressRoutes := router.PathPrefix("/progress").Subrouter()
	protectedProgressRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedProgressRoutes.HandleFunc("", progressHandler.GetProgressHandler).Methods("GET")

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	// Start the HTTP server
	port := cfg.Port
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	fmt.Printf("Server running on port %s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
