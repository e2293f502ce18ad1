package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/client/client"
	"github.com/dmitrijs2005/lootledger/internal/client/config"
	"github.com/dmitrijs2005/lootledger/internal/netx"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
	gs "github.com/dmitrijs2005/lootledger/internal/server/grpc"
	"google.golang.org/grpc/status"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

var errUsage = errors.New("usage")

type App struct {
	config *config.Config
	api    client.Client
	actor  gs.Actor
	Mode   Mode
	reader *bufio.Reader

	// artworkKey is attached to the next minted item.
	artworkKey string
}

// uploadFn is a test seam for the presigned upload.
var uploadFn = netx.UploadToPresignedURL

func NewApp(c *config.Config) (*App, error) {
	reader := bufio.NewReader(os.Stdin)

	if c.AccessToken == "" {
		token, err := GetSecret(reader, "-Enter access token")
		if err != nil {
			return nil, err
		}
		c.AccessToken = token
	}

	api, err := client.NewLedgerClient(c.ServerEndpointAddr, c.AccessToken, client.WithTimeout(c.RequestTimeout))
	if err != nil {
		return nil, err
	}

	return newApp(c, api, reader), nil
}

func newApp(c *config.Config, api client.Client, reader *bufio.Reader) *App {
	return &App{
		config: c,
		api:    api,
		actor:  gs.Actor{ActorID: c.ActorID, DisplayName: c.DisplayName},
		reader: reader,
	}
}

func (app *App) setMode(mode Mode) {
	if app.Mode != mode {
		app.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.api.Close()
	a.Root(ctx)
}

func (a *App) Root(ctx context.Context) {
	log.Println("Welcome to lootledger CLI (type 'help' for commands)")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}()

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

func (a *App) getStatus() string {
	s := a.actor.ActorID
	if a.Mode != "" {
		s = strings.TrimSpace(s + " " + string(a.Mode))
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.api.Ping(ctx)
			cancel()

			if err != nil {
				if a.Mode == ModeOnline {
					a.setMode(ModeOffline)
				}
			} else {
				if a.Mode != ModeOnline {
					a.setMode(ModeOnline)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}

// report prints the outcome of a command. Server messages are shown as is.
func report(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errUsage) {
		printlnFn(err.Error())
		return err
	}
	if st, ok := status.FromError(err); ok {
		printlnFn("Error:", st.Message())
		return err
	}
	printlnFn("Error:", err.Error())
	return err
}

func parseAmount(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount must be a whole number", errUsage)
	}
	return n, nil
}

func formatItem(it *gs.ItemView) string {
	if it == nil {
		return "-"
	}
	s := fmt.Sprintf("#%d %s [%s] atk %d def %d", it.ID, it.Name, it.Rarity, it.Attack, it.Defense)
	if it.EnchantLevel > 0 {
		s += fmt.Sprintf(" +%d", it.EnchantLevel)
	}
	if it.Price > 0 {
		s += fmt.Sprintf(" price %d", it.Price)
	}
	return s
}

func (a *App) hasActor() bool { return a.actor.ActorID != "" }

// As switches the actor subsequent commands are issued for.
func (a *App) As(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return report(fmt.Errorf("%w: as <actor_id> [display name]", errUsage))
	}
	a.actor = gs.Actor{ActorID: args[0], DisplayName: strings.Join(args[1:], " ")}
	printlnFn("Now acting as", a.actor.ActorID)
	return nil
}

func (a *App) OpenDrop(ctx context.Context) error {
	d, err := a.api.OpenDrop(ctx, a.actor)
	if err != nil {
		return report(err)
	}
	printlnFn(fmt.Sprintf("Drop #%d is open: %s", d.DropID, formatItem(d.Item)))
	return nil
}

func (a *App) Claim(ctx context.Context) error {
	d, err := a.api.ClaimDrop(ctx, a.actor)
	if err != nil {
		return report(err)
	}
	printlnFn(fmt.Sprintf("%s claimed %s", a.actor.ActorID, formatItem(d.Item)))
	return nil
}

func (a *App) Balance(ctx context.Context) error {
	u, err := a.api.GetUser(ctx, a.actor)
	if err != nil {
		return report(err)
	}
	printlnFn(fmt.Sprintf("%s: %d coins (wins %d, losses %d)", u.ID, u.Balance, u.Wins, u.Losses))
	return nil
}

func (a *App) Give(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return report(fmt.Errorf("%w: give <to> <amount> [reason]", errUsage))
	}
	amount, err := parseAmount(args[1])
	if err != nil {
		return report(err)
	}
	r, err := a.api.Transfer(ctx, a.actor, args[0], amount, strings.Join(args[2:], " "))
	if err != nil {
		return report(err)
	}
	printlnFn(fmt.Sprintf("Sent %d to %s (you: %d, them: %d)", amount, args[0], r.FromBalance, r.ToBalance))
	return nil
}

// Adjust credits (sign > 0) or debits the current actor.
func (a *App) Adjust(ctx context.Context, sign int, args []string) error {
	if len(args) < 1 {
		return report(fmt.Errorf("%w: credit|debit <amount> [reason]", errUsage))
	}
	amount, err := parseAmount(args[0])
	if err != nil {
		return report(err)
	}
	reason := strings.Join(args[1:], " ")
	var balance int64
	if sign > 0 {
		balance, err = a.api.Credit(ctx, a.actor, amount, reason)
	} else {
		balance, err = a.api.Debit(ctx, a.actor, amount, reason)
	}
	if err != nil {
		return report(err)
	}
	printlnFn(fmt.Sprintf("%s balance: %d", a.actor.ActorID, balance))
	return nil
}

func (a *App) Daily(ctx context.Context) error {
	r, err := a.api.Daily(ctx, a.actor)
	if err != nil {
		return report(err)
	}
	printlnFn(fmt.Sprintf("+%d coins, balance %d", r.Amount, r.Balance))
	return nil
}

func (a *App) Inventory(ctx context.Context) error {
	entries, err := a.api.ListInventory(ctx, a.actor)
	if err != nil {
		return report(err)
	}
	if len(entries) == 0 {
		printlnFn("Inventory is empty")
		return nil
	}
	for _, e := range entries {
		fav := ""
		if e.Favorite {
			fav = " *"
		}
		printlnFn(fmt.Sprintf("entry %d: item %d (%s)%s", e.ID, e.ItemID, e.Source, fav))
	}
	return nil
}

func (a *App) Shop(ctx context.Context) error {
	items, err := a.api.ListShop(ctx, a.actor)
	if err != nil {
		return report(err)
	}
	if len(items) == 0 {
		printlnFn("Nothing for sale")
		return nil
	}
	for i := range items {
		printlnFn(formatItem(&items[i]))
	}
	return nil
}

func (a *App) Buy(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return report(fmt.Errorf("%w: buy <item_id>", errUsage))
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return report(fmt.Errorf("%w: item id must be a number", errUsage))
	}
	p, err := a.api.BuyItem(ctx, a.actor, id)
	if err != nil {
		return report(err)
	}
	for i := range p.Items {
		printlnFn("Bought", formatItem(&p.Items[i]))
	}
	printlnFn(fmt.Sprintf("Balance: %d", p.Balance))
	return nil
}

func (a *App) Item(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return report(fmt.Errorf("%w: item <item_id>", errUsage))
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return report(fmt.Errorf("%w: item id must be a number", errUsage))
	}
	it, err := a.api.GetItem(ctx, id)
	if err != nil {
		return report(err)
	}
	printlnFn(formatItem(it))
	if it.ArtworkURL != "" {
		printlnFn("Artwork:", it.ArtworkURL)
	}
	return nil
}

// Mint adds a catalog item: mint <rarity> <price> <attack> <defense> <name...>
func (a *App) Mint(ctx context.Context, args []string) error {
	if len(args) < 5 {
		return report(fmt.Errorf("%w: mint <rarity> <price> <attack> <defense> <name>", errUsage))
	}
	rarity, err := models.ParseRarity(args[0])
	if err != nil {
		return report(fmt.Errorf("%w: %v", errUsage, err))
	}
	nums := make([]int64, 3)
	for i := range nums {
		if nums[i], err = parseAmount(args[i+1]); err != nil {
			return report(err)
		}
	}
	it, err := a.api.MintItem(ctx, &gs.MintRequest{
		Actor:      a.actor,
		Name:       strings.Join(args[4:], " "),
		Rarity:     rarity,
		Price:      nums[0],
		Attack:     nums[1],
		Defense:    nums[2],
		ArtworkRef: a.artworkKey,
	})
	if err != nil {
		return report(err)
	}
	a.artworkKey = ""
	printlnFn("Minted", formatItem(it))
	return nil
}

// Upload stores an artwork file and remembers its key for the next mint.
func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return report(fmt.Errorf("%w: upload <path>", errUsage))
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return report(err)
	}
	key, url, err := a.api.ArtworkUploadURL(ctx, a.actor)
	if err != nil {
		return report(err)
	}
	if err := uploadFn(ctx, url, mime.TypeByExtension(filepath.Ext(args[0])), data); err != nil {
		return report(err)
	}
	a.artworkKey = key
	printlnFn(fmt.Sprintf("Artwork uploaded as %s; it will be attached to the next mint", key))
	return nil
}
