// Command gitscope searches GitHub repositories and users from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"

	"github.com/custodia-labs/gitscope/internal/adapters/driven/config/file"
	"github.com/custodia-labs/gitscope/internal/adapters/driven/github"
	"github.com/custodia-labs/gitscope/internal/adapters/driven/oauth"
	"github.com/custodia-labs/gitscope/internal/adapters/driven/secret"
	"github.com/custodia-labs/gitscope/internal/adapters/driven/storage/bolt"
	"github.com/custodia-labs/gitscope/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/cli"
	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driving"
	"github.com/custodia-labs/gitscope/internal/core/services"
	"github.com/custodia-labs/gitscope/internal/logger"
)

// credentialPurpose separates the token encryption key from any other key
// derived from the same master key.
const credentialPurpose = "gitscope/credentials/v1"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fail("opening config", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings := settingsService.Get()
	if err := settings.Validate(); err != nil {
		return fail("invalid configuration in "+configStore.Path(), err)
	}

	dataDir := settings.DataDir
	if dataDir == "" {
		if dataDir, err = sqlite.DefaultDataDir(); err != nil {
			return fail("locating data directory", err)
		}
	}

	key, err := secret.LoadOrCreateKey(filepath.Join(dataDir, secret.KeyFileName))
	if err != nil {
		return fail("loading encryption key", err)
	}
	sealer, err := secret.NewSealer(key, credentialPurpose)
	if err != nil {
		return fail("loading encryption key", err)
	}
	store, err := sqlite.NewStore(dataDir, sealer)
	if err != nil {
		return fail("opening credential store", err)
	}
	defer store.Close()
	credentials := services.NewCredentialsService(store.TokenStore())

	client, err := github.NewClient(github.Config{
		BaseURL:       settings.APIBaseURL,
		RatePerSecond: settings.RatePerSecond,
	}, credentials)
	if err != nil {
		return fail("configuring GitHub client", err)
	}

	agent, err := oauth.NewLoopbackAgent(settings.RedirectPort, oauth.WithOutput(os.Stderr))
	if err != nil {
		return fail("reserving OAuth redirect port", err)
	}
	oauthConfig := domain.OAuthConfig{
		ClientID:     settings.ClientID,
		AuthorizeURL: domain.DefaultAuthorizeURL,
		TokenURL:     domain.DefaultTokenURL,
		RedirectURI:  agent.RedirectURI(),
		Scopes:       settings.Scopes,
	}
	flow := services.NewOAuthFlow(
		oauthConfig,
		agent,
		oauth.NewExchanger(oauthConfig),
		client,
		credentials,
		services.WithAttemptIDs(uuid.NewString),
	)

	session := services.NewSessionManager(ctx, credentials, client, flow)
	defer session.Close()
	client.OnUnauthorized(func() {
		logger.Warn("github: token rejected, signing out")
		session.SignOut(context.Background())
	})

	historyStore, err := bolt.Open(dataDir)
	if err != nil {
		return fail("opening history", err)
	}
	defer historyStore.Close()
	history, err := services.NewHistoryService(ctx, historyStore)
	if err != nil {
		return fail("loading history", err)
	}

	cli.SetServices(cli.Services{
		Session:     session,
		OAuth:       flow,
		Credentials: credentials,
		History:     history,
		Settings:    settingsService,
		RepositorySearch: func() driving.RepositorySearch {
			return services.NewRepositorySearch(client, history, settings.Debounce)
		},
		UserSearch: func() driving.UserSearch {
			return services.NewUserSearch(client, history, settings.Debounce)
		},
		UserRepositories: func() driving.RepositorySearch {
			return services.NewUserRepositories(client, history)
		},
		Watch:   configStore.Watch,
		OpenURL: oauth.OpenBrowser,
		Quota: func() (domain.RateQuota, bool) {
			return client.Quota(github.ResourceCore)
		},
	})

	return cli.Execute(ctx)
}

// fail reports a startup error the way cobra reports command errors.
func fail(what string, err error) error {
	err = fmt.Errorf("%s: %w", what, err)
	fmt.Fprintln(os.Stderr, "Error:", err)
	return err
}
