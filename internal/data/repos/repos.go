package repos

import (
	"gorm.io/gorm"

	"github.com/bilyfoster/librelog-backend/internal/data/repos/traffic"
	"github.com/bilyfoster/librelog-backend/internal/platform/logger"
)

type CopyRepo = traffic.CopyRepo
type CutRepo = traffic.CutRepo
type CutVersionRepo = traffic.CutVersionRepo
type QCResultRepo = traffic.QCResultRepo

func NewCopyRepo(db *gorm.DB, baseLog *logger.Logger) CopyRepo {
	return traffic.NewCopyRepo(db, baseLog)
}

func NewCutRepo(db *gorm.DB, baseLog *logger.Logger) CutRepo {
	return traffic.NewCutRepo(db, baseLog)
}

func NewCutVersionRepo(db *gorm.DB, baseLog *logger.Logger) CutVersionRepo {
	return traffic.NewCutVersionRepo(db, baseLog)
}

func NewQCResultRepo(db *gorm.DB, baseLog *logger.Logger) QCResultRepo {
	return traffic.NewQCResultRepo(db, baseLog)
}
