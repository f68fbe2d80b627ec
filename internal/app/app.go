package app

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"hushwire/internal/config"
	"hushwire/internal/domain"
	"hushwire/internal/relay"
	"hushwire/internal/services/identity"
	"hushwire/internal/services/message"
	"hushwire/internal/services/prekey"
	"hushwire/internal/session"
	"hushwire/internal/store"
)

// KeystoreFile is the bbolt database inside the home directory.
const KeystoreFile = "keystore.db"

// App is the dependency graph behind every CLI command.
type App struct {
	Cfg      *config.Config
	Log      *zap.Logger
	Keystore *store.Keystore
	Identity domain.IdentityService
	PreKeys  domain.PreKeyService
	Sessions *session.Manager

	// Relay and Messages are nil when no relay URL is configured; offline
	// commands work without them.
	Relay    *relay.Client
	Messages domain.MessageService
}

// New builds the graph from cfg, opening (and on first use creating) the
// keystore under cfg.Home.
func New(cfg *config.Config) (*App, error) {
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	ks, err := store.Open(filepath.Join(cfg.Home, KeystoreFile), log)
	if err != nil {
		return nil, err
	}

	user := domain.Username(cfg.Username)
	device := domain.DeviceID(cfg.DeviceID)
	sessions := session.NewManager(ks, log)

	a := &App{
		Cfg:      cfg,
		Log:      log,
		Keystore: ks,
		Identity: identity.New(ks),
		PreKeys:  prekey.New(user, device, ks, ks),
		Sessions: sessions,
	}
	if cfg.RelayURL != "" {
		a.Relay = relay.NewClient(cfg.RelayURL)
		a.Messages = message.New(user, device, ks, ks, sessions, a.Relay, a.Relay, log)
	}
	return a, nil
}

// Close releases the keystore and flushes the logger.
func (a *App) Close() error {
	_ = a.Log.Sync()
	return a.Keystore.Close()
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	c := zap.NewDevelopmentConfig()
	c.Level = zap.NewAtomicLevelAt(lvl)
	return c.Build()
}
