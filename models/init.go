package models

import (
	"videoflow/db"
)

func Init() {
	db.Instance.AutoMigrate(&User{})
	db.Instance.AutoMigrate(&Video{})
	db.Instance.AutoMigrate(&VideoAssignment{})
}
