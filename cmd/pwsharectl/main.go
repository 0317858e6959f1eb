package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"pwshare/pkg/config"
	"pwshare/pkg/logger"
	"pwshare/pkg/sessions"
	"pwshare/pkg/shares"
)

func main() {
	logger.Init(logger.WarnLevel, "text")

	cfg, err := config.LoadConfig(os.Getenv("PWSHARE_CONFIG"))
	if err != nil {
		fail("configuration error: %v", err)
	}

	command := "list"
	args := os.Args[1:]
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	store := shares.NewStore(cfg.SharesDir, cfg.StaticDir)

	switch command {
	case "list":
		cmdList(store)
	case "add":
		cmdAdd(store, args)
	case "edit":
		cmdEdit(store, args)
	case "remove":
		cmdRemove(store, args)
	case "sessions-list":
		cmdSessionsList(cfg)
	case "sessions-remove":
		cmdSessionsRemove(cfg)
	case "sessions-clean":
		cmdSessionsClean(cfg)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", command)
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: pwsharectl <command> [options]

Commands:
  list                          List shared folders (default)
  add <folder> --password <pw> [--expires <days|never>]
                                Create a share
  edit <folder> [--password <pw>] [--expires <days|never>]
                                Update a share's password and/or expiry
  remove <folder>               Delete a share config (folder kept if non-empty)
  sessions-list                 List all sessions
  sessions-remove               Terminate all sessions
  sessions-clean                Delete expired sessions

Configuration comes from PWSHARE_CONFIG (YAML file) and the
CONFIG_FOLDER, STATIC_FOLDER, DATABASE environment variables.
`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func shareOneliner(cfg shares.Config) string {
	return fmt.Sprintf("%-15s expires: %s", cfg.Name+"/", cfg.Expires)
}

func cmdList(store *shares.Store) {
	configs, err := store.List()
	if err != nil {
		fail("listing shares: %v", err)
	}
	fmt.Println("Shared folders:")
	for _, cfg := range configs {
		fmt.Println(shareOneliner(cfg))
	}
}

// shareArgs parses "<folder> [--password pw] [--expires days]"
func shareArgs(name string, args []string) (folder, password, expires string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	pw := fs.String("password", "", "Set password")
	exp := fs.String("expires", "", "Share expires in days, or 'never'")
	if len(args) < 1 || len(args[0]) == 0 || args[0][0] == '-' {
		fail("%s requires a folder name", name)
	}
	_ = fs.Parse(args[1:])
	return args[0], *pw, *exp
}

func cmdAdd(store *shares.Store, args []string) {
	folder, password, expires := shareArgs("add", args)
	cfg, err := store.Add(folder, password, expires)
	if err != nil {
		fail("add failed: %v", err)
	}
	fmt.Printf("Added:\n%s\n", shareOneliner(cfg))
}

func cmdEdit(store *shares.Store, args []string) {
	folder, password, expires := shareArgs("edit", args)
	cfg, err := store.Edit(folder, password, expires)
	if err != nil {
		fail("edit failed: %v", err)
	}
	fmt.Printf("Updated:\n%s\n", shareOneliner(cfg))
}

func cmdRemove(store *shares.Store, args []string) {
	if len(args) < 1 {
		fail("remove requires a folder name")
	}
	folder := args[0]
	removedFolder, err := store.Remove(folder)
	if err != nil {
		fail("remove failed: %v", err)
	}
	fmt.Printf("Removed configuration for %s\n", folder)
	if removedFolder {
		fmt.Printf("Removed empty folder %s\n", folder)
	} else {
		fmt.Printf("Folder %s kept (contains data or already gone)\n", folder)
	}
}

func openSessions(cfg *config.ServerConfig) sessions.Store {
	store, err := sessions.New(cfg.Sessions)
	if err != nil {
		fail("opening session store: %v", err)
	}
	return store
}

func cmdSessionsList(cfg *config.ServerConfig) {
	store := openSessions(cfg)
	defer store.Close()

	rows, err := store.ListAll()
	if err != nil {
		fail("listing sessions: %v", err)
	}
	fmt.Printf("%-15s %-19s IP\n", "Share", "Expires")
	for _, row := range rows {
		expires := time.Unix(row.Expire, 0).Format("2006-01-02 15:04:05")
		fmt.Printf("%-15s %-19s %s\n", row.Folder, expires, row.IP)
	}
}

func cmdSessionsRemove(cfg *config.ServerConfig) {
	store := openSessions(cfg)
	defer store.Close()

	removed, err := store.DeleteAll()
	if err != nil {
		fail("terminating sessions: %v", err)
	}
	fmt.Printf("Terminated %d session(s)\n", removed)
}

func cmdSessionsClean(cfg *config.ServerConfig) {
	store := openSessions(cfg)
	defer store.Close()

	removed, err := store.DeleteExpired(time.Now().Unix())
	if err != nil {
		fail("cleaning sessions: %v", err)
	}
	fmt.Printf("Deleted %d expired session(s)\n", removed)
}
