package migration

import (
	clientdomain "github.com/solobill/solobill/internal/client/domain"
	"github.com/solobill/solobill/internal/config"
	documentdomain "github.com/solobill/solobill/internal/document/domain"
	emaildomain "github.com/solobill/solobill/internal/email/domain"
	invoicedomain "github.com/solobill/solobill/internal/invoice/domain"
	paymentdomain "github.com/solobill/solobill/internal/payment/domain"
	proposaldomain "github.com/solobill/solobill/internal/proposal/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		return conn.AutoMigrate(
			&clientdomain.Client{},
			&invoicedomain.Invoice{},
			&invoicedomain.InvoiceItem{},
			&paymentdomain.Payment{},
			&proposaldomain.Proposal{},
			&proposaldomain.ProposalItem{},
			&emaildomain.EmailSettings{},
			&emaildomain.EmailTemplate{},
			&emaildomain.EmailHistory{},
			&documentdomain.SavedTemplate{},
		)
	}),
)
