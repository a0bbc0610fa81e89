package main

import (
	"log"
	"net/http"
	"os"

	"tornadogo-backend/internal/database"
	"tornadogo-backend/internal/dispatch"
	"tornadogo-backend/internal/handlers"
	"tornadogo-backend/internal/middleware"
	"tornadogo-backend/internal/notify"
	"tornadogo-backend/internal/store"
	"tornadogo-backend/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚕 TORNADOGO DISPATCH SERVER STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	// Load .env file
	log.Println("📂 Loading environment variables...")
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Warning: .env file not found, using environment variables from system")
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// Pick the persistence adapter. Postgres when DATABASE_URL is set,
	// JSON files when DATA_DIR is set, plain memory otherwise.
	adapter, cleanup := buildAdapter()
	defer cleanup()

	log.Println("📦 Loading dispatch state...")
	st, err := store.New(adapter)
	if err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Failed to load persisted state")
		log.Printf("   Error: %v", err)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	log.Println("✅ Dispatch state loaded")

	// Notification pipeline: CSV export emails always on, push and AMQP
	// only when configured. Everything runs async off the mutation path.
	notifiers := notify.Multi{notify.NewExportNotifier(os.Getenv("EXPORT_EMAIL_TO"))}

	fcmService := buildFCM()
	if fcmService != nil {
		notifiers = append(notifiers, fcmService)
	}

	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		amqpNotifier, err := notify.NewAMQPNotifier(amqpURL)
		if err != nil {
			log.Printf("⚠️  Failed to connect to RabbitMQ: %v (event publishing disabled)", err)
		} else {
			defer amqpNotifier.Close()
			notifiers = append(notifiers, amqpNotifier)
			log.Println("✅ RabbitMQ event publisher connected")
		}
	}

	eng := dispatch.NewEngine(st, notify.Async{Next: notifiers}, dispatch.Config{
		StrictTransitions: os.Getenv("STRICT_TRANSITIONS") == "true",
	})

	// Seed default accounts
	log.Println("🌱 Seeding default accounts...")
	if err := eng.SeedDefaults(); err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Seeding failed")
		log.Printf("   Error: %v", err)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	log.Println("✅ Default accounts ready")

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("✅ WebSocket hub started")

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Authentication routes (no auth required)
	r.Post("/api/auth/login", handlers.Login(eng))
	r.Post("/api/auth/register", handlers.Register(eng))

	// WebSocket endpoint (authentication handled in handler via query param)
	r.Get("/ws", websocket.HandleWebSocket(wsHub, eng))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Ride booking (guests allowed, token optional)
		r.Post("/rides", handlers.CreateRide(eng))

		// Public ride status by share token (no auth required)
		r.Get("/rides/status/{token}", handlers.PublicRideStatus(eng))

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth)

			// Auth status endpoint
			r.Get("/auth/status", handlers.GetAuthStatus(eng))

			// Ride lifecycle
			r.Get("/rides/mine", handlers.GetMyRides(eng))
			r.Get("/rides/{id}", handlers.GetRide(eng))
			r.Post("/rides/{id}/cancel", handlers.CancelRide(eng))
			r.Post("/rides/{id}/location-sharing", handlers.ToggleLocationSharing(eng))

			// In-ride messaging
			r.Get("/rides/{id}/messages", handlers.GetRideMessages(eng))
			r.Post("/rides/{id}/messages", handlers.SendMessage(eng, wsHub))

			// Activity trail
			r.Get("/rides/{id}/activity", handlers.GetRideActivity(eng))

			// Driver endpoints
			r.Get("/driver/availability", handlers.GetAvailability(eng))
			r.Post("/driver/availability", handlers.SetAvailability(eng))
			r.Post("/driver/location", handlers.ReportLocation(eng, wsHub))
			r.Post("/driver/fcm-token", handlers.RegisterFCMToken(fcmService))
		})

		// Admin endpoints (require authentication + admin role)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth)
			r.Use(middleware.RequireRole("ADMIN"))

			r.Post("/admin/rides/{id}/assign", handlers.AssignDriver(eng, wsHub))
			r.Post("/admin/rides/{id}/status", handlers.UpdateStatus(eng, wsHub))
			r.Get("/admin/rides", handlers.GetAllRides(eng))
			r.Get("/admin/users", handlers.GetAllUsers(eng))
			r.Post("/admin/users", handlers.CreateUser(eng))
			r.Patch("/admin/users/{id}", handlers.UpdateUser(eng))
			r.Get("/admin/drivers", handlers.GetDrivers(eng))
			r.Get("/admin/activity", handlers.GetRecentActivity(eng))
		})
	})

	// Get port
	log.Println("🔍 Checking PORT environment variable...")
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		log.Printf("⚠️  PORT not set, using default: %s", port)
	} else {
		log.Printf("✅ PORT found: %s", port)
	}

	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("✅ ALL INITIALIZATION COMPLETE")
	log.Printf("🚀 Server starting on http://localhost:%s", port)
	log.Println("🔌 Ready to accept requests!")
	log.Println("═══════════════════════════════════════════════════════════════════")

	// Start server
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Server failed to start")
		log.Printf("   Error: %v", err)
		log.Printf("   Port: %s", port)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
}

// buildAdapter selects the persistence backend from the environment and
// returns it along with a cleanup func for deferred teardown.
func buildAdapter() (store.Adapter, func()) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		log.Println("🔌 Connecting to database...")
		db, err := database.Connect(dbURL)
		if err != nil {
			log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			log.Println("❌ FATAL ERROR: Database connection failed")
			log.Printf("   Error: %v", err)
			log.Println("   This is usually caused by:")
			log.Println("   1. Wrong DATABASE_URL format")
			log.Println("   2. PostgreSQL service is down")
			log.Println("   3. Network connectivity issue")
			log.Println("   4. Invalid credentials")
			log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			log.Fatal(err)
		}
		log.Println("✅ Database connection established")

		log.Println("🔄 Running database migrations...")
		if err := database.Migrate(db); err != nil {
			log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			log.Println("❌ FATAL ERROR: Database migrations failed")
			log.Printf("   Error: %v", err)
			log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			log.Fatal(err)
		}
		log.Println("✅ Database migrations completed")

		return store.NewPGAdapter(db), func() { db.Close() }
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		adapter, err := store.NewFileAdapter(dataDir)
		if err != nil {
			log.Fatalf("❌ FATAL ERROR: Failed to prepare data directory %s: %v", dataDir, err)
		}
		log.Printf("✅ File persistence enabled: %s", dataDir)
		return adapter, func() {}
	}

	log.Println("⚠️  No DATABASE_URL or DATA_DIR set, state is in-memory only")
	return store.NewMemoryAdapter(), func() {}
}

// buildFCM initializes Firebase Cloud Messaging.
// Supports both file path and base64-encoded credentials (for Railway/cloud deployments).
func buildFCM() *notify.FCMNotifier {
	if fcmCredsBase64 := os.Getenv("FIREBASE_CREDENTIALS_BASE64"); fcmCredsBase64 != "" {
		// Use base64-encoded credentials (Railway-friendly)
		fcmService, err := notify.NewFCMNotifierFromBase64(fcmCredsBase64)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from base64: %v (push notifications disabled)", err)
			return nil
		}
		log.Println("✅ Firebase Cloud Messaging initialized from base64 credentials")
		return fcmService
	}

	// Fall back to file path (local development)
	fcmCredentialsFile := os.Getenv("FIREBASE_CREDENTIALS_FILE")
	if fcmCredentialsFile == "" {
		fcmCredentialsFile = "./firebase-service-account.json"
	}

	fcmService, err := notify.NewFCMNotifier(fcmCredentialsFile)
	if err != nil {
		log.Printf("⚠️  Failed to initialize FCM from file: %v (push notifications disabled)", err)
		return nil
	}
	log.Println("✅ Firebase Cloud Messaging initialized from file")
	return fcmService
}
