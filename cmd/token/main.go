// Command token mints the HS256 access token a command adapter presents to
// the server. It reads the secret from the same configuration layers as the
// server.
//
//	token -subject discord-bot [-admin]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/lootledger/internal/flagx"
	"github.com/dmitrijs2005/lootledger/internal/server/auth"
	"github.com/dmitrijs2005/lootledger/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	subject := fs.String("subject", "adapter", "adapter name written into the token subject")
	admin := fs.Bool("admin", false, "allow administrative commands")
	if err := fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-subject", "-admin"})); err != nil {
		log.Fatalf("%v", err)
	}

	token, err := auth.GenerateToken(*subject, *admin, []byte(cfg.SecretKey), cfg.AccessTokenValidityDuration)
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Println(token)
}
