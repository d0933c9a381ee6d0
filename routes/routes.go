package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	"technova/config"
	controller "technova/controllers"
	"technova/middleware"
	"technova/utils"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, storage utils.Storage) error {
	SetupAuthRoutes(app, db)
	return SetupAPIRoutes(app, db, storage)
}

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	authLogger := log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile)
	authController := controller.NewAuthController(db, authLogger)
	otpController := controller.NewOTPController(db, authLogger)

	// Auth routes group with logging middleware
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", middleware.LoginRateLimiter(), authController.Register)
	auth.Post("/login", middleware.LoginRateLimiter(), authController.Login)
	auth.Post("/forgot-password", authController.ForgotPassword)
	auth.Post("/verify-reset-otp", authController.VerifyResetPasswordOTP)
	auth.Post("/reset-password", authController.ResetPassword)
	auth.Post("/refresh", authController.RefreshToken)

	// Google OAuth routes
	auth.Get("/google", authController.GoogleOAuth)
	auth.Get("/google/callback", authController.GoogleOAuthCallback)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected(db))
	protectedAuth.Post("/logout", authController.Logout)
	protectedAuth.Post("/change-password", authController.ChangePassword)
	protectedAuth.Get("/me", authController.GetCurrentUser)

	// OTP routes group
	otp := app.Group("/otp", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	otp.Post("/send", middleware.OTPRateLimiter(), otpController.SendOTP)
	otp.Post("/verify", otpController.VerifyOTP)
	otp.Post("/resend", middleware.OTPRateLimiter(), otpController.ResendOTP)

	authLogger.Println("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, storage utils.Storage) error {
	teamController := controller.NewTeamController(db, log.New(os.Stdout, "TEAM: ", log.LstdFlags))
	submissionController := controller.NewSubmissionController(db, storage, log.New(os.Stdout, "SUBMISSION: ", log.LstdFlags))
	passController := controller.NewPassController(db, storage, log.New(os.Stdout, "PASS: ", log.LstdFlags))
	profileController := controller.NewProfileController(db, log.New(os.Stdout, "PROFILE: ", log.LstdFlags))

	contentController, err := controller.NewContentController(
		config.AppConfig.ContentDir, log.New(os.Stdout, "CONTENT: ", log.LstdFlags))
	if err != nil {
		return err
	}

	// Public content endpoints
	app.Get("/content/:page", contentController.GetPage)
	app.Get("/passes/catalog", passController.GetCatalog)

	// Uploaded blobs are served statically when the disk backend is in use
	if config.AppConfig.Storage.Backend == "disk" {
		app.Static(config.AppConfig.Storage.PublicURL, config.AppConfig.Storage.LocalDir)
	}

	requestLog := logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	})

	// Team routes
	teams := app.Group("/teams", middleware.Protected(db), requestLog)
	teams.Post("/create", teamController.CreateTeam)
	teams.Post("/join", teamController.JoinTeam)
	teams.Post("/leave", teamController.LeaveTeam)
	teams.Get("/mine", teamController.GetMyTeams)

	// Submission routes
	submissions := app.Group("/submissions", middleware.Protected(db), requestLog)
	submissions.Get("/team-check", submissionController.TeamCheck)
	submissions.Post("/upload", submissionController.Upload)
	submissions.Post("/withdraw", submissionController.Withdraw)
	submissions.Get("/mine", submissionController.GetMySubmissions)

	// Pass routes
	passes := app.Group("/passes", middleware.Protected(db), requestLog)
	passes.Get("/mine", passController.GetMyPasses)
	passes.Post("/purchase", passController.PurchasePass)

	// Profile routes
	profile := app.Group("/profile", middleware.Protected(db), requestLog)
	profile.Get("/", profileController.GetProfile)
	profile.Put("/", profileController.UpdateProfile)

	return nil
}
