package service

import (
	"github.com/MKhiriev/go-vault-local/internal/adapter"
	"github.com/MKhiriev/go-vault-local/internal/config"
	"github.com/MKhiriev/go-vault-local/internal/crypto"
	"github.com/MKhiriev/go-vault-local/internal/store"
)

type Services struct {
	CredentialService CredentialService
	SyncService       SyncService
	SyncJob           SyncJob
	BackupService     BackupService
}

func NewServices(storages *store.Storages, remote adapter.RemoteStore, transport adapter.BlobTransport, cfg *config.StructuredConfig) *Services {
	keychain := crypto.NewKeyChainService()
	keys := store.NewKeyCache(store.DefaultKeyTTL)

	syncSvc := NewSyncService(storages.VaultRepository, remote, cfg.SyncConfig())
	credentialSvc := NewCredentialService(storages.VaultRepository, keychain, keys, syncSvc)
	backupSvc := NewBackupService(storages.VaultRepository, keychain, transport, cfg.App, cfg.Backup)

	return &Services{
		CredentialService: credentialSvc,
		SyncService:       syncSvc,
		SyncJob:           NewSyncJob(syncSvc),
		BackupService:     backupSvc,
	}
}
