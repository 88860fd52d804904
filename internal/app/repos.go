package app

import (
	"gorm.io/gorm"

	"github.com/bilyfoster/librelog-backend/internal/data/repos"
	"github.com/bilyfoster/librelog-backend/internal/platform/logger"
)

type Repos struct {
	Copy       repos.CopyRepo
	Cut        repos.CutRepo
	CutVersion repos.CutVersionRepo
	QCResult   repos.QCResultRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Copy:       repos.NewCopyRepo(db, log),
		Cut:        repos.NewCutRepo(db, log),
		CutVersion: repos.NewCutVersionRepo(db, log),
		QCResult:   repos.NewQCResultRepo(db, log),
	}
}
