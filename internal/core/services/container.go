package services

import (
	"log/slog"
	"time"

	"github.com/calderis/companion_backend/internal/core/ports"
)

// Repositories groups the persistence dependencies of the service layer.
type Repositories struct {
	Settings ports.SettingsRepository
	Actors   ports.ActorRepository
	Tokens   ports.TokenRepository
	Scenes   ports.SceneRepository
	Users    ports.UserRepository
}

// Options carries the non-repository dependencies.
type Options struct {
	Channel    ports.Channel
	Sessions   ports.SessionRegistry
	Bus        ports.EventBus
	Logger     *slog.Logger
	JWTSecret  string
	JWTExpiry  time.Duration
	JWTIssuer  string
	AckTimeout time.Duration
}

// Container holds all services behind their facades.
type Container struct {
	Settings    ports.SettingsSvcFacade
	Definitions ports.DefinitionSvcFacade
	Ledger      ports.LedgerSvcFacade
	Transfer    ports.TransferSvcFacade
	Presets     ports.PresetSvcFacade
	Party       ports.PartySvcFacade
	Distance    ports.DistanceSvcFacade
	Auth        ports.AuthSvcFacade
}

// NewContainer wires the service graph: settings feed definitions, which
// feed the ledger, which the transfer coordinator rides on.
func NewContainer(repos Repositories, opts Options) *Container {
	c := &Container{}
	c.Settings = NewSettingsService(repos.Settings)
	c.Definitions = NewDefinitionService(c.Settings, opts.Channel, opts.Bus, opts.Logger)
	c.Ledger = NewLedgerService(repos.Actors, c.Definitions, c.Settings, opts.Channel, opts.Bus, opts.Logger)
	c.Transfer = NewTransferService(c.Ledger, repos.Actors, opts.Sessions, opts.Channel, opts.Bus, opts.Logger, opts.AckTimeout)
	c.Presets = NewPresetService(repos.Tokens)
	c.Party = NewPartyService(repos.Actors, c.Settings)
	c.Distance = NewDistanceService(repos.Tokens, repos.Scenes, c.Settings)
	c.Auth = NewAuthService(repos.Users, opts.JWTSecret, opts.JWTExpiry, opts.JWTIssuer)
	return c
}

// Compile-time facade checks.
var (
	_ ports.SettingsSvcFacade   = (*SettingsService)(nil)
	_ ports.DefinitionSvcFacade = (*DefinitionService)(nil)
	_ ports.LedgerSvcFacade     = (*LedgerService)(nil)
	_ ports.TransferSvcFacade   = (*TransferService)(nil)
	_ ports.PresetSvcFacade     = (*PresetService)(nil)
	_ ports.PartySvcFacade      = (*PartyService)(nil)
	_ ports.DistanceSvcFacade   = (*DistanceService)(nil)
	_ ports.AuthSvcFacade       = (*AuthService)(nil)
)
