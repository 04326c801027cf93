package database

import (
	"fmt"
	"log"

	"coursegate_backend/internal/config"
	"coursegate_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	return db, nil
}

// Migrate creates the schema. The unique composite indexes on
// (user_id, module_id), (user_id, lesson_id) and (user_id, notification_id)
// are the real guards behind the idempotency rules; the application-level
// existence checks alone are racy.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Purchase{},
		&model.Course{},
		&model.CourseModule{},
		&model.Lesson{},
		&model.Material{},
		&model.ModuleRelease{},
		&model.LessonProgress{},
		&model.UserStats{},
		&model.NotificationRecord{},
		&model.UserNotification{},
	)
}
