// Command cli is a smoke runner for the sync server SDK. It walks the whole
// API surface against a running server: account, device, settings, a version
// with a small collection tree and an image attachment.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/indiarose/sync-server/internal/common"
	"github.com/indiarose/sync-server/sdk"
)

func main() {
	host := flag.String("host", "http://localhost:8080", "server base URL")
	login := flag.String("login", "india", "account login")
	password := flag.String("password", "rose", "account password")
	device := flag.String("device", "runner", "device name")
	flag.Parse()

	ctx := context.Background()

	if err := run(ctx, *host, *login, *password, *device); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, host, login, password, device string) error {
	c := sdk.NewClient(host, login, password, sdk.WithDevice(device))

	if err := c.Register(ctx, login+"@example.com"); err != nil {
		if !errors.Is(err, common.ErrorLoginExists) {
			return fmt.Errorf("register: %w", err)
		}
		fmt.Println("account already registered")
	}

	if err := c.CreateDevice(ctx, device); err != nil {
		if !errors.Is(err, common.ErrorConflict) {
			return fmt.Errorf("create device: %w", err)
		}
		fmt.Println("device already exists")
	}

	if err := c.Login(ctx); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	devices, err := c.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}
	fmt.Println("devices:")
	for _, d := range devices {
		fmt.Printf("\t%s\n", d.Name)
	}

	settings, err := c.UpdateSettings(ctx, `{"theme":"default"}`)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	fmt.Printf("settings version %d saved at %s\n", settings.Version, settings.Date)

	version, err := c.CreateVersion(ctx)
	if err != nil {
		return fmt.Errorf("create version: %w", err)
	}
	fmt.Printf("opened version %d\n", version.Version)

	mapped, err := c.UpdateIndiagrams(ctx, []*sdk.IndiagramUpdate{
		{ID: -2, Version: version.Version, Text: "animals", ParentID: -1, IsCategory: true, IsEnabled: true},
		{ID: -3, Version: version.Version, Text: "dog", ParentID: -2, IsEnabled: true},
	})
	if err != nil {
		return fmt.Errorf("batch update: %w", err)
	}
	for _, m := range mapped {
		fmt.Printf("sent %d -> database %d (parent %d)\n", m.SentID, m.DatabaseID, m.ParentID)
	}

	dogID := mapped[len(mapped)-1].DatabaseID
	if err := c.UploadImage(ctx, dogID, version.Version, "dog.png", []byte("not really a png")); err != nil {
		return fmt.Errorf("upload image: %w", err)
	}

	if _, err := c.CloseVersion(ctx, version.Version); err != nil {
		return fmt.Errorf("close version: %w", err)
	}
	fmt.Printf("closed version %d\n", version.Version)

	tree, err := c.Collection(ctx)
	if err != nil {
		return fmt.Errorf("collection: %w", err)
	}
	printTree(tree, 0)

	file, err := c.Image(ctx, dogID, 0)
	if err != nil {
		return fmt.Errorf("download image: %w", err)
	}
	fmt.Printf("downloaded %s (%d bytes)\n", file.FileName, len(file.Content))

	return nil
}

func printTree(nodes []*sdk.Indiagram, depth int) {
	for _, n := range nodes {
		for i := 0; i < depth; i++ {
			fmt.Print("\t")
		}
		fmt.Printf("%d: %s\n", n.DatabaseID, n.Text)
		printTree(n.Children, depth+1)
	}
}
