// Command altcha-client solves one puzzle against a running altchagate and
// checks that the returned session cookie validates.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"altchagate/cmd/internal/altcha/client"
)

func getenv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func main() {
	server := flag.String("server", getenv("ALTCHA_SERVER_URL", "http://127.0.0.1:8080"), "altchagate base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	cookie := flag.String("cookie", getenv("ALTCHA_COOKIE_NAME", client.DefaultCookieName), "session cookie name")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	lvl := slog.LevelInfo
	if *verbose {
		lvl = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))

	c, err := client.New(*server, &http.Client{Timeout: 10 * time.Second}, log)
	if err != nil {
		log.Error("client.init.fail", "err", err)
		os.Exit(1)
	}
	c = c.WithCookieName(*cookie)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	res, err := c.Pass(ctx)
	if err != nil {
		log.Error("client.pass.fail", "err", err)
		os.Exit(1)
	}
	if !res.Validated {
		log.Error("client.validate.rejected")
		os.Exit(2)
	}
	log.Info("client.pass.ok", "number", res.Number, "took_ms", res.Took.Milliseconds())
}
