package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/park285/Cheese-Predict-bot/internal/chatview"
	"github.com/park285/Cheese-Predict-bot/internal/msgcat"
	"github.com/park285/Cheese-Predict-bot/internal/obslog"
	"github.com/park285/Cheese-Predict-bot/internal/predict"
	"github.com/park285/Cheese-Predict-bot/internal/presenter"
	"github.com/park285/Cheese-Predict-bot/internal/util"
)

// consoleEgress prints text and saves images instead of talking to Iris.
type consoleEgress struct {
	pngPath string
}

func (c consoleEgress) SendText(_ context.Context, room, message string) error {
	fmt.Printf("[%s]\n%s\n\n", room, strings.ReplaceAll(message, util.KakaoZeroWidthSpace, ""))
	return nil
}

func (c consoleEgress) SendImage(_ context.Context, room, imageBase64 string) error {
	if c.pngPath == "" {
		fmt.Printf("[%s] board image: %d bytes (use -png to save)\n", room, base64.StdEncoding.DecodedLen(len(imageBase64)))
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.pngPath, raw, 0o644); err != nil {
		return err
	}
	fmt.Printf("[%s] board image saved to %s\n", room, c.pngPath)
	return nil
}

func main() {
	baseURL := flag.String("url", os.Getenv("PREDICT_BASE_URL"), "prediction service base URL")
	path := flag.String("path", "/predict", "endpoint path; empty posts to the base URL")
	pngPath := flag.String("png", "", "write the board image to this file")
	timeout := flag.Duration("timeout", 0, "optional request deadline (0 waits indefinitely)")
	flag.Parse()

	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	if strings.TrimSpace(*baseURL) == "" {
		log.Fatal("PREDICT_BASE_URL or -url is required")
	}
	username := strings.Join(flag.Args(), " ")

	cat, err := msgcat.New(os.Getenv("MESSAGES_DIR"))
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}
	formatter := chatview.NewFormatter(cat, "")
	deliver := chatview.NewDeliverer(consoleEgress{pngPath: *pngPath}, formatter, obslog.L())

	page := chatview.NewPage("console", nil)
	client := predict.NewClient(*baseURL, predict.WithPath(*path))
	pres, err := presenter.New(client, page.Elements(),
		presenter.WithMessages(formatter.Messages()),
		presenter.WithStateListener(func(s presenter.UIState) {
			if s == presenter.StateLoading {
				fmt.Println(formatter.Loading(username))
			}
		}),
	)
	if err != nil {
		log.Fatalf("presenter init error: %v", err)
	}

	ctx := context.Background()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	start := time.Now()
	submitErr := pres.Submit(ctx, username)
	if err := deliver.Flush(ctx, page); err != nil {
		log.Printf("flush error: %v", err)
	}
	fmt.Printf("state=%s kind=%s elapsed=%s endpoint=%s\n", pres.State(), predict.Kind(submitErr), time.Since(start).Truncate(time.Millisecond), client.Endpoint())
	if submitErr != nil {
		os.Exit(1)
	}
}
