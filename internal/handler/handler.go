package handler

import (
	"memnotes/internal/scheduler"
	"memnotes/internal/storage"
	"memnotes/internal/store"

	"github.com/robfig/cron/v3"
)

type Handler struct {
	store   *store.Store
	storage *storage.Store
	sched   *scheduler.Scheduler
	backup  *cron.Cron
}

func NewHandler(s *store.Store, st *storage.Store, sched *scheduler.Scheduler) *Handler {
	return &Handler{
		store:   s,
		storage: st,
		sched:   sched,
	}
}
