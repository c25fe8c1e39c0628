package main

import (
	"fmt"
	"log"
	"math"
	"os"

	"github.com/fyefbv/common-ground-api/internal/config"
	"github.com/fyefbv/common-ground-api/internal/models"
	"github.com/fyefbv/common-ground-api/internal/storage"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	godotenv.Load()
	cfg := config.FromEnv()

	db, err := gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "cleanup-searches":
		deleted, err := storageSvc.CleanupOldSearches(config.SearchMaxAge)
		if err != nil {
			log.Fatalf("Error cleaning up searches: %v", err)
		}
		fmt.Printf("Deleted %d stale searches.\n", deleted)
	case "reports":
		status := models.ReportStatusNew
		if len(os.Args) > 2 {
			status = os.Args[2]
		}
		reports, err := storageSvc.ListReportsByStatus(status)
		if err != nil {
			log.Fatalf("Error listing reports: %v", err)
		}
		if len(reports) == 0 {
			fmt.Printf("No %s reports.\n", status)
			return
		}
		for _, r := range reports {
			fmt.Printf("%s  session=%s  reporter=%s  reported=%s  reason=%q\n",
				r.ID, r.SessionID, r.ReporterProfileID, r.ReportedProfileID, r.Reason)
		}
	case "confirm-report":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin confirm-report <report_id>")
			os.Exit(1)
		}
		reportID := os.Args[2]
		if err := confirmReport(storageSvc, reportID); err != nil {
			log.Fatalf("Error confirming report: %v", err)
		}
		fmt.Printf("Report %s has been confirmed.\n", reportID)
	case "dismiss-report":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin dismiss-report <report_id>")
			os.Exit(1)
		}
		reportID := os.Args[2]
		if err := dismissReport(storageSvc, reportID); err != nil {
			log.Fatalf("Error dismissing report: %v", err)
		}
		fmt.Printf("Report %s has been dismissed.\n", reportID)
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

// confirmReport позначає скаргу підтвердженою та знижує репутацію
// порушника на фіксований штраф.
func confirmReport(s storage.Storage, reportID string) error {
	report, err := s.GetReportByID(reportID)
	if err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("report %s not found", reportID)
	}
	if report.Status != models.ReportStatusNew {
		return fmt.Errorf("report %s is already %s", reportID, report.Status)
	}

	profile, err := s.GetProfileByID(report.ReportedProfileID)
	if err != nil {
		return err
	}
	if profile != nil {
		penalized := math.Max(config.MinReputation, profile.ReputationScore-config.ConfirmedReportPenalty)
		if err := s.UpdateReputation(profile.ID, penalized); err != nil {
			return err
		}
	}

	return s.UpdateReportStatus(reportID, models.ReportStatusConfirmed)
}

func dismissReport(s storage.Storage, reportID string) error {
	report, err := s.GetReportByID(reportID)
	if err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("report %s not found", reportID)
	}
	return s.UpdateReportStatus(reportID, models.ReportStatusDismissed)
}
