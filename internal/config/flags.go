package config

import (
	"flag"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-d database DSN (SQLite file path)
//	-r remote record-store base URL
//	-c/-config json file path with configs
//	-request-timeout outbound request timeout (e.g., "15s")
//	-auto-sync enable the periodic background sync job
//	-sync-interval background sync period (e.g., "5m")
//	-retry-limit failed replay attempts before an operation is dropped
//	-conflict-policy local_wins | remote_wins | latest_timestamp | manual
//	-max-queue-length pending-operation queue cap
//	-backup-dir directory backup bundles are written to
//	-device-id device identifier recorded in backup metadata
func ParseFlags() *StructuredConfig {
	var databaseDSN string
	var remoteAddress string
	var jsonConfigPath string
	var requestTimeout time.Duration
	var autoSync bool
	var syncInterval time.Duration
	var retryLimit int
	var conflictPolicy string
	var maxQueueLength int
	var backupDir string
	var deviceID string

	flag.StringVar(&databaseDSN, "d", "", "Database DSN")
	flag.StringVar(&remoteAddress, "r", "", "Remote record-store base URL")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Outbound request timeout (e.g., 15s)")
	flag.BoolVar(&autoSync, "auto-sync", false, "Enable periodic background sync")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Background sync period (e.g., 5m)")
	flag.IntVar(&retryLimit, "retry-limit", 0, "Failed replay attempts before drop")
	flag.StringVar(&conflictPolicy, "conflict-policy", "", "Conflict policy")
	flag.IntVar(&maxQueueLength, "max-queue-length", 0, "Pending-operation queue cap")
	flag.StringVar(&backupDir, "backup-dir", "", "Backup bundle directory")
	flag.StringVar(&deviceID, "device-id", "", "Device identifier for backup metadata")

	flag.Parse()

	return &StructuredConfig{
		App: App{
			DeviceID: deviceID,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Remote: Remote{
			HTTPAddress:    remoteAddress,
			RequestTimeout: requestTimeout,
		},
		Sync: Sync{
			AutoSync:       autoSync,
			Interval:       syncInterval,
			RetryLimit:     retryLimit,
			ConflictPolicy: conflictPolicy,
			MaxQueueLength: maxQueueLength,
		},
		Backup: Backup{
			Dir: backupDir,
		},
		JSONFilePath: jsonConfigPath,
	}
}
