// Package commands routes actor intents to the services through a table of
// handlers. Access rules and cooldowns live in the table as data.
package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/cooldown"
	"github.com/dmitrijs2005/lootledger/internal/logging"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
	"github.com/dmitrijs2005/lootledger/internal/server/services"
)

// Args are the typed parameters of an intent. Each kind reads the fields it
// needs and ignores the rest.
type Args struct {
	TargetID         string
	Amount           int64
	ItemID           int64
	EntryID          int64
	RequestedEntryID int64
	TradeID          int64
	Attack           int64
	Defense          int64
	Name             string
	Category         models.LedgerCategory
	Reason           string
	Limit            int
	Flag             bool
	Item             *models.Item
}

// Intent is one resolved request from an adapter.
type Intent struct {
	Kind        Kind
	ActorID     string
	DisplayName string
	Admin       bool
	Args        Args
}

type Handler func(ctx context.Context, in Intent) (any, error)

// Command describes one kind. Cooldown is enforced by Dispatch per actor;
// kinds whose service keeps its own cooldown (daily, work) leave it zero.
type Command struct {
	Kind      Kind
	Name      string
	Category  Category
	Cooldown  time.Duration
	AdminOnly bool
	Handler   Handler
}

type Registry struct {
	commands  map[Kind]Command
	svc       *services.Services
	cooldowns *cooldown.Tracker
	log       logging.Logger
}

const coinflipCooldown = 5 * time.Second

func NewRegistry(svc *services.Services, log logging.Logger) *Registry {
	r := &Registry{
		commands:  make(map[Kind]Command),
		svc:       svc,
		cooldowns: svc.Cooldowns,
		log:       log,
	}
	r.registerDefaults()
	return r
}

func (r *Registry) register(c Command) {
	c.Name = c.Kind.String()
	r.commands[c.Kind] = c
}

// Lookup returns the command registered for k.
func (r *Registry) Lookup(k Kind) (Command, bool) {
	c, ok := r.commands[k]
	return c, ok
}

// Commands lists every registered command in kind order.
func (r *Registry) Commands() []Command {
	out := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Dispatch checks the access rules of in.Kind and runs its handler. The
// actor is created on first sight. Banned actors are rejected unless the
// caller is an admin. A failed handler does not consume the cooldown.
func (r *Registry) Dispatch(ctx context.Context, in Intent) (any, error) {
	cmd, ok := r.commands[in.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown command %s", common.ErrInvalidArgument, in.Kind)
	}
	if cmd.AdminOnly && !in.Admin {
		return nil, common.ErrForbidden
	}

	u, err := r.svc.Catalog.EnsureUser(ctx, in.ActorID, in.DisplayName)
	if err != nil {
		return nil, err
	}
	if u.Banned && !in.Admin {
		return nil, common.ErrUserBanned
	}

	if cmd.Cooldown > 0 {
		if err := r.cooldowns.Require(in.ActorID, cmd.Name, cmd.Cooldown); err != nil {
			return nil, err
		}
	}

	res, err := cmd.Handler(ctx, in)
	if err != nil {
		if cmd.Cooldown > 0 {
			r.cooldowns.Reset(in.ActorID, cmd.Name)
		}
		r.log.Debug(ctx, "command failed", "command", cmd.Name, "actor", in.ActorID, "error", err)
		return nil, err
	}
	return res, nil
}
