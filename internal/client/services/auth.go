package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/tsheet/internal/client/api"
	"github.com/dmitrijs2005/tsheet/internal/client/models"
	"github.com/dmitrijs2005/tsheet/internal/client/repositories/kv"
	"github.com/dmitrijs2005/tsheet/internal/common"
	"github.com/dmitrijs2005/tsheet/internal/logging"
)

// How long a login stays valid before the user must authenticate online
// again. Expiry gates new user actions only; queued sync is gated by
// connectivity, never by login state.
const authExpiry = 24 * time.Hour

// AuthService is the login gate for the client.
//
// Online logins verify the site against the remote service and store a
// bcrypt hash of the PIN so subsequent logins work offline. Offline logins
// verify against that stored record until it expires.
type AuthService interface {
	Login(ctx context.Context, userID, userName, siteID string, pin []byte) (*models.UserData, error)

	// CurrentUser returns the stored login, or nil when absent. An expired
	// record is cleared and common.ErrSessionExpired is returned.
	CurrentUser(ctx context.Context) (*models.UserData, error)

	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client api.Client
	db     *sql.DB
	net    Connectivity
	log    logging.Logger
}

func NewAuthService(client api.Client, db *sql.DB, net Connectivity, log logging.Logger) AuthService {
	return &authService{client: client, db: db, net: net, log: log.With("component", "auth")}
}

func (a *authService) kv() kv.Store {
	return kv.NewSQLiteStore(a.db)
}

func (a *authService) Login(ctx context.Context, userID, userName, siteID string, pin []byte) (*models.UserData, error) {
	if a.net.Online() {
		return a.onlineLogin(ctx, userID, userName, siteID, pin)
	}
	return a.offlineLogin(ctx, userID, pin)
}

// onlineLogin validates the site against the service, then stores the login
// record with a fresh expiry and a PIN hash for offline re-login.
func (a *authService) onlineLogin(ctx context.Context, userID, userName, siteID string, pin []byte) (*models.UserData, error) {
	if _, err := a.client.SiteConfig(ctx, siteID); err != nil {
		return nil, fmt.Errorf("site validation error: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword(pin, bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("pin hashing error: %w", err)
	}

	now := time.Now()
	user := &models.UserData{
		UserID:       userID,
		UserName:     userName,
		SiteID:       siteID,
		PINHash:      hash,
		LastAuthTime: now,
		Expiry:       now.Add(authExpiry),
	}

	data, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	if err := a.kv().Set(ctx, keyUserData, data); err != nil {
		// Login still succeeds for this run; only offline re-login is lost.
		a.log.Error(ctx, "failed to persist login", "error", err)
	}

	return user, nil
}

// offlineLogin verifies the PIN against the locally stored record.
func (a *authService) offlineLogin(ctx context.Context, userID string, pin []byte) (*models.UserData, error) {
	user, err := a.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.ErrNotLoggedIn
	}
	if user.UserID != userID {
		return nil, common.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(user.PINHash, pin) != nil {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}

func (a *authService) CurrentUser(ctx context.Context) (*models.UserData, error) {
	data, err := a.kv().Get(ctx, keyUserData)
	if err != nil {
		a.log.Error(ctx, "failed to read login record", "error", err)
		return nil, nil
	}
	if data == nil {
		return nil, nil
	}

	var user models.UserData
	if err := json.Unmarshal(data, &user); err != nil {
		a.log.Warn(ctx, "malformed login record, clearing", "error", err)
		_ = a.kv().Delete(ctx, keyUserData)
		return nil, nil
	}

	if user.Expired() {
		a.log.Info(ctx, "stored login expired", "userID", user.UserID)
		_ = a.kv().Delete(ctx, keyUserData)
		return nil, common.ErrSessionExpired
	}

	return &user, nil
}

func (a *authService) Logout(ctx context.Context) error {
	return a.kv().Delete(ctx, keyUserData)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
