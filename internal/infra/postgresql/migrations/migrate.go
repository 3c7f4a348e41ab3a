package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/gestionis/notify-core/internal/repository"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		createConfigurationTables(),
		createMessageTemplates(),
		createMessageLogs(),
		createScheduledMessages(),
	})

	return m.Migrate()
}

func createConfigurationTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_configuration_tables",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(
				&repository.EmailConfigurationModel{},
				&repository.SMSConfigurationModel{},
				&repository.WhatsAppConfigurationModel{},
			); err != nil {
				return err
			}
			// at most one active configuration per channel
			indexes := []string{
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_email_configurations_active ON email_configurations (active) WHERE active = true AND deleted_at IS NULL`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_sms_configurations_active ON sms_configurations (active) WHERE active = true AND deleted_at IS NULL`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_whatsapp_configurations_active ON whatsapp_configurations (active) WHERE active = true AND deleted_at IS NULL`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(
				&repository.EmailConfigurationModel{},
				&repository.SMSConfigurationModel{},
				&repository.WhatsAppConfigurationModel{},
			)
		},
	}
}

func createMessageTemplates() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_message_templates",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.MessageTemplateModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_message_templates_type ON message_templates (template_type)`,
				`CREATE INDEX IF NOT EXISTS idx_message_templates_active ON message_templates (active)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.MessageTemplateModel{})
		},
	}
}

func createMessageLogs() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_message_logs",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.MessageLogModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_message_logs_channel_status ON message_logs (channel, status)`,
				`CREATE INDEX IF NOT EXISTS idx_message_logs_recipient ON message_logs (recipient)`,
				`CREATE INDEX IF NOT EXISTS idx_message_logs_sent_at ON message_logs (sent_at)`,
				`CREATE INDEX IF NOT EXISTS idx_message_logs_provider_message_id ON message_logs (provider_message_id) WHERE provider_message_id IS NOT NULL`,
				`CREATE INDEX IF NOT EXISTS idx_message_logs_retry ON message_logs (next_retry_at) WHERE status = 'FAILED' AND next_retry_at IS NOT NULL`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.MessageLogModel{})
		},
	}
}

func createScheduledMessages() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_scheduled_messages",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.ScheduledMessageModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_scheduled_messages_scheduled_time ON scheduled_messages (scheduled_time)`,
				`CREATE INDEX IF NOT EXISTS idx_scheduled_messages_processed ON scheduled_messages (processed)`,
				`CREATE INDEX IF NOT EXISTS idx_scheduled_messages_next_run ON scheduled_messages (next_run)`,
				`CREATE INDEX IF NOT EXISTS idx_scheduled_messages_due ON scheduled_messages (scheduled_time) WHERE processed = false AND canceled = false`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.ScheduledMessageModel{})
		},
	}
}
