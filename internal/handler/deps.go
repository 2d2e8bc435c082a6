package handler

import (
	"hzroom/internal/app/chat"
	"hzroom/internal/app/directory"
	"hzroom/internal/app/storage"
	"hzroom/internal/configs"
)

// AppDeps carries everything the handlers need.
type AppDeps struct {
	Config    *configs.AppConfig
	Manager   *chat.Manager
	Directory directory.Source

	// Storage is nil when avatar uploads are disabled.
	Storage storage.StorageService
}
