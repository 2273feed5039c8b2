package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/devcaliber/assistant/internal/logger"
	"github.com/devcaliber/assistant/internal/messaging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "List received messages for an identity",
	Run: func(cmd *cobra.Command, _ []string) {
		inbox(cmd)
	},
}

func init() {
	rootCmd.AddCommand(inboxCmd)

	inboxCmd.Flags().String("mark-read", "", "mark the message with the given id as read")
}

func inbox(cmd *cobra.Command) {
	ctx := context.Background()

	zapLogger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zapLogger.Fatal("getting a config", zap.Error(err))
	}

	identity := strings.TrimSpace(viper.GetString("identity"))
	if identity == "" {
		zapLogger.Fatal("identity is required", zap.String("hint", "pass --identity with the user's email"))
	}

	store, err := openStore(config)
	if err != nil {
		zapLogger.Fatal("opening store", zap.Error(err))
	}
	defer store.Close()

	messages := messaging.NewStore(store, zapLogger)

	if id := cmd.Flag("mark-read").Value.String(); id != "" {
		messages.MarkRead(ctx, id)
		zapLogger.Info("marked message as read", zap.String("message_id", id))
	}

	inbox := messages.ListFor(ctx, identity)
	unread := messages.UnreadCount(ctx, identity)

	fmt.Printf("Inbox for %s: %d messages, %d unread\n\n", identity, len(inbox), unread)
	for _, message := range inbox {
		marker := " "
		if !message.Read {
			marker = "*"
		}
		fmt.Printf("%s [%s] %s from %s\n    %s\n",
			marker,
			message.ID,
			message.Timestamp.Format("2006-01-02 15:04"),
			message.From,
			message.Content,
		)
	}
}
