// Package repo persists the order event audit trail to postgres.
package repo

import (
	"gorm.io/gorm"
)

type IRepo interface {
	OrderEvent() IOrderEvent
}

type Repo struct {
	engineDB *gorm.DB
}

func NewRepo(engineDB *gorm.DB) IRepo {
	return &Repo{
		engineDB: engineDB,
	}
}

func (r *Repo) OrderEvent() IOrderEvent {
	return NewOrderEventSQLRepo(r.engineDB)
}
