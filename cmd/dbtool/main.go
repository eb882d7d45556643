package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cpharmston/fieldlevel/modules/iam/infrastructure/persistence"
)

func main() {
	if len(os.Args) < 2 {
		fatalf("usage: dbtool <iam-smoke> [args]")
	}

	switch os.Args[1] {
	case "iam-smoke":
		iamSmoke(os.Args[2:])
	default:
		fatalf("unknown subcommand: %s", os.Args[1])
	}
}

// iamSmoke verifies the iam schema answers the queries the admin server
// issues: principal lookup and capability membership.
func iamSmoke(args []string) {
	fs := flag.NewFlagSet("iam-smoke", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var url string
	var principalID string
	fs.StringVar(&url, "url", "", "postgres connection string")
	fs.StringVar(&principalID, "principal", "root", "principal id to probe")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if url == "" {
		fatalf("missing --url")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		fatal(err)
	}
	defer conn.Close(context.Background())

	store := persistence.NewIAMPGStore(conn)

	rec, err := store.GetPrincipal(ctx, principalID)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("principal %s: email=%s superuser=%v status=%s\n", rec.ID, rec.Email, rec.Superuser, rec.Status)

	caps, err := store.ListCapabilities(ctx, principalID)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("capabilities: %d\n", len(caps))
	for _, c := range caps {
		fmt.Printf("  %s\n", c)
	}
	fmt.Println("ok")
}

func fatal(err error) {
	fatalf("%v", err)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
