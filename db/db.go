package db

import (
	"videoflow/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var Instance *gorm.DB

func Init() {
	var (
		db  *gorm.DB
		err error
	)
	gormConfig := &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	}
	if config.MYSQL_DSN != "" {
		db, err = gorm.Open(mysql.Open(config.MYSQL_DSN), gormConfig)
	} else {
		file := config.SQLITE_FILE
		if file == "" {
			file = "videoflow.db"
		}
		db, err = gorm.Open(sqlite.Open(file), gormConfig)
	}
	if err != nil || db == nil {
		panic(err)
	}
	Instance = db
}
