package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/mailotp/internal/otp"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.otp.enabled") {
		if err := otp.New(otp.Dependency{
			Ctx:         a.ctx,
			StoreDriver: a.storeDriver,
			DBConn:      a.dbConn,
			MongoDB:     a.mongoDB,
			CacheConn:   a.cacheConn,
			Locker:      a.locker,
			Mail:        a.mail,
			Messaging:   a.messaging,
			Goroutine:   a.goroutine,
			Router:      a.router,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			Clock:       a.clock,
			Validator:   a.validator,
			Generator:   a.generator,
		}); err != nil {
			slog.Error("failed to init module otp", "error", err)
			os.Exit(1)
		}
	}
}
