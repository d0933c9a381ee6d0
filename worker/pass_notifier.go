package worker

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"technova/models"
	"technova/utils"
)

// PassNotifier watches for passes that were verified by an operator and
// emails the buyer a confirmation. Verification itself happens outside this
// service; the worker only reacts to the status flip.
type PassNotifier struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewPassNotifier(db *gorm.DB, logger *log.Logger) *PassNotifier {
	return &PassNotifier{
		DB:     db,
		Logger: logger,
	}
}

func (pn *PassNotifier) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	pn.Logger.Println("Pass notifier started")

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			pn.Logger.Println("Pass notifier shutting down...")
			return
		case <-ticker.C:
			pn.processVerifiedPasses()
		}
	}
}

func (pn *PassNotifier) processVerifiedPasses() {
	var passes []models.Pass
	err := pn.DB.Preload("User").
		Where("status = ? AND notified_at IS NULL", models.PassStatusVerified).
		Limit(50).Find(&passes).Error
	if err != nil {
		pn.Logger.Printf("Error fetching verified passes: %v", err)
		return
	}

	for _, pass := range passes {
		if err := pn.notify(pass); err != nil {
			pn.Logger.Printf("Error notifying user %d for pass %d: %v", pass.UserID, pass.ID, err)
		}
	}
}

func (pn *PassNotifier) notify(pass models.Pass) error {
	if err := utils.SendPassVerifiedEmail(pass.User.Email, pass.User.DisplayName(), passName(pass.PassType)); err != nil {
		return err
	}

	now := time.Now()
	return pn.DB.Model(&models.Pass{}).Where("id = ?", pass.ID).
		Update("notified_at", &now).Error
}

func passName(passType int) string {
	switch passType {
	case models.PassTypeGeneral:
		return "General Pass"
	case models.PassTypePaperPresentation:
		return "Paper Presentation Pass"
	case models.PassTypeIdeathon:
		return "Ideathon Pass"
	}
	return "Festival Pass"
}
