package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with clinic users, permissions and transaction categories for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initGorm(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		if clearData {
			for _, table := range []string{"validation_logs", "transactions", "user_permissions", "permissions", "transaction_categories", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		users := []struct {
			Email string
			Name  string
			Role  string
		}{
			{"sari@dokterku.id", "Sari", "petugas"},
			{"budi@dokterku.id", "Budi Bendahara", "bendahara"},
			{"maya@dokterku.id", "Maya Manajer", "manajer"},
			{"admin@dokterku.id", "Admin Klinik", "admin"},
		}

		for _, u := range users {
			var exists int
			if err := db.Raw("SELECT 1 FROM users WHERE email = ?", u.Email).Row().Scan(&exists); err == nil {
				fmt.Printf("user %s already exists; will ensure permissions\n", u.Email)
				continue
			}
			if err := db.Exec("INSERT INTO users (email, name, password_hash, role, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())", u.Email, u.Name, string(hash), u.Role).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}
			fmt.Println("Seeded user:", u.Email)
		}

		permissions := []struct {
			Name string
			Desc string
		}{
			{"admin", "full administrator"},
			{"manager", "manager level access"},
			{"validate_transactions", "Can approve, reject and request revision"},
			{"approve_high_value", "Can validate transactions above the high value threshold"},
			{"view_transactions", "Can view transactions"},
			{"create_transactions", "Can submit transactions"},
		}

		for _, p := range permissions {
			var pid int64
			if err := db.Raw("SELECT id FROM permissions WHERE name = ?", p.Name).Row().Scan(&pid); err != nil {
				if err := db.Exec("INSERT INTO permissions (name, description, created_at) VALUES (?, ?, now())", p.Name, p.Desc).Error; err != nil {
					log.Fatalf("failed to insert permission %s: %v", p.Name, err)
				}
			}
		}

		rolePermissions := map[string][]string{
			"sari@dokterku.id":  {"view_transactions", "create_transactions"},
			"budi@dokterku.id":  {"view_transactions", "create_transactions", "validate_transactions"},
			"maya@dokterku.id":  {"view_transactions", "create_transactions", "validate_transactions", "approve_high_value", "manager"},
			"admin@dokterku.id": {"admin", "manager", "validate_transactions", "approve_high_value", "view_transactions", "create_transactions"},
		}

		for email, perms := range rolePermissions {
			var userID int64
			if err := db.Raw("SELECT id FROM users WHERE email = ?", email).Row().Scan(&userID); err != nil {
				log.Fatalf("failed to lookup user id for %s: %v", email, err)
			}

			for _, permName := range perms {
				var pid int64
				if err := db.Raw("SELECT id FROM permissions WHERE name = ?", permName).Row().Scan(&pid); err != nil {
					log.Fatalf("permission not found %s: %v", permName, err)
				}

				var exists int
				if err := db.Raw("SELECT 1 FROM user_permissions WHERE user_id = ? AND permission_id = ?", userID, pid).Row().Scan(&exists); err == nil {
					continue
				}

				if err := db.Exec("INSERT INTO user_permissions (user_id, permission_id, granted_by, created_at) VALUES (?, ?, NULL, now())", userID, pid).Error; err != nil {
					log.Fatalf("failed to grant permission %s to %s: %v", permName, email, err)
				}
			}
			fmt.Printf("Granted permissions to %s: %v\n", email, perms)
		}

		categories := []struct {
			Name     string
			Desc     string
			Routine  bool
			HighRisk bool
		}{
			{"konsultasi", "pendapatan konsultasi pasien", true, false},
			{"tindakan", "pendapatan tindakan medis", false, false},
			{"obat", "penjualan dan pembelian obat", false, false},
			{"operasional", "biaya operasional harian", true, false},
			{"infrastruktur", "renovasi dan peralatan klinik", false, true},
			{"lainnya", "transaksi lain-lain", false, true},
		}

		for _, c := range categories {
			var exists int
			if err := db.Raw("SELECT 1 FROM transaction_categories WHERE name = ?", c.Name).Row().Scan(&exists); err != nil {
				if err := db.Exec("INSERT INTO transaction_categories (name, description, is_routine, is_high_risk, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())", c.Name, c.Desc, c.Routine, c.HighRisk).Error; err != nil {
					log.Fatalf("failed to insert transaction category %s: %v", c.Name, err)
				}
				fmt.Printf("Seeded transaction category: %s\n", c.Name)
			}
		}

		fmt.Println("Transaction categories seeded successfully")
	},
}
