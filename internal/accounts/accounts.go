// Package accounts resolves the list of test accounts for a run from the
// configuration, an accounts file or a MongoDB collection.
package accounts

import (
	"context"
	"fmt"
	"os"
	"strings"

	"smokegomodule/internal/config"
	"smokegomodule/internal/types"
	"smokegomodule/shared/configstore"

	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v3"
)

// StoreOpener opens the document store backing the mongo source
type StoreOpener func(ctx context.Context, uri, database string) (configstore.ConfigStore, error)

// Loader resolves accounts according to an AccountsConfig
type Loader struct {
	cfg  config.AccountsConfig
	open StoreOpener
}

// NewLoader creates a loader; open may be nil to use MongoDB
func NewLoader(cfg config.AccountsConfig, open StoreOpener) *Loader {
	if open == nil {
		open = configstore.NewMongoConfigStore
	}
	return &Loader{cfg: cfg, open: open}
}

// Load returns the accounts in the order the source defines them
func (l *Loader) Load(ctx context.Context) ([]types.TestAccount, error) {
	var (
		accounts []types.TestAccount
		err      error
	)

	switch l.cfg.Source {
	case config.AccountSourceConfig, "":
		accounts = l.cfg.List
	case config.AccountSourceFile:
		accounts, err = LoadFile(l.cfg.File)
	case config.AccountSourceMongo:
		accounts, err = l.loadMongo(ctx)
	default:
		return nil, fmt.Errorf("unsupported accounts source %q", l.cfg.Source)
	}
	if err != nil {
		return nil, err
	}

	if err := Validate(accounts); err != nil {
		return nil, fmt.Errorf("invalid accounts from %s source: %w", l.cfg.Source, err)
	}
	return accounts, nil
}

// LoadFile reads a YAML or JSON file holding either a list of accounts or a
// document with an "accounts" list
func LoadFile(path string) ([]types.TestAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading accounts file %s: %w", path, err)
	}

	var list []fileAccount
	if err := yaml.Unmarshal(data, &list); err != nil {
		var doc struct {
			Accounts []fileAccount `yaml:"accounts"`
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("error parsing accounts file %s: %w", path, err)
		}
		list = doc.Accounts
	}

	accounts := make([]types.TestAccount, 0, len(list))
	for _, fa := range list {
		accounts = append(accounts, fa.account())
	}
	return accounts, nil
}

// fileAccount accepts both camelCase and snake_case redirect keys
type fileAccount struct {
	Email            string `yaml:"email"`
	Password         string `yaml:"password"`
	Role             string `yaml:"role"`
	ExpectedRedirect string `yaml:"expectedRedirect"`
	ExpectedSnake    string `yaml:"expected_redirect"`
}

func (fa fileAccount) account() types.TestAccount {
	redirect := fa.ExpectedRedirect
	if redirect == "" {
		redirect = fa.ExpectedSnake
	}
	return types.TestAccount{Email: fa.Email, Password: fa.Password, Role: fa.Role, ExpectedRedirect: redirect}
}

func (l *Loader) loadMongo(ctx context.Context) ([]types.TestAccount, error) {
	store, err := l.open(ctx, l.cfg.Mongo.URI, l.cfg.Mongo.Database)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	var accounts []types.TestAccount
	if err := store.FindMany(ctx, l.cfg.Mongo.Collection, bson.M{}, &accounts); err != nil {
		return nil, fmt.Errorf("failed to read accounts from %s.%s: %w", l.cfg.Mongo.Database, l.cfg.Mongo.Collection, err)
	}
	return accounts, nil
}

// Seed upserts accounts into the mongo collection keyed by email
func (l *Loader) Seed(ctx context.Context, accounts []types.TestAccount) error {
	if err := Validate(accounts); err != nil {
		return err
	}

	store, err := l.open(ctx, l.cfg.Mongo.URI, l.cfg.Mongo.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, a := range accounts {
		if err := store.UpsertOne(ctx, l.cfg.Mongo.Collection, bson.M{"email": a.Email}, bson.M{"$set": a}); err != nil {
			return fmt.Errorf("failed to seed account %s: %w", a.Email, err)
		}
	}
	return nil
}

// Validate checks that every account can be tested
func Validate(accounts []types.TestAccount) error {
	if len(accounts) == 0 {
		return fmt.Errorf("no test accounts")
	}
	for i, a := range accounts {
		switch {
		case a.Email == "":
			return fmt.Errorf("account %d has no email", i)
		case a.Role == "":
			return fmt.Errorf("account %s has no role", a.Email)
		case !strings.HasPrefix(a.ExpectedRedirect, "/"):
			return fmt.Errorf("account %s: expected redirect %q must be an absolute path", a.Email, a.ExpectedRedirect)
		}
	}
	return nil
}
