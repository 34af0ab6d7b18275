package telegram

import (
	"context"
	"fmt"

	"github.com/okabanov/matcha/backend/internal/domain/model"
)

// ReviewNotifier pushes freshly submitted reviews to the moderators' chat.
type ReviewNotifier struct {
	bot    *Bot
	chatID int64
}

func NewReviewNotifier(bot *Bot, chatID int64) *ReviewNotifier {
	return &ReviewNotifier{
		bot:    bot,
		chatID: chatID,
	}
}

func (n *ReviewNotifier) NotifyPendingReview(ctx context.Context, review model.ProfileReview) error {
	if n == nil || n.bot == nil || n.chatID == 0 {
		return fmt.Errorf("review notifier is not configured")
	}

	text := fmt.Sprintf(
		"Review #%d\nprofile: %d\nattribute: %s\ncurrent: %s\nproposed: %s",
		review.ID,
		review.ProfileID,
		review.Attribute,
		review.CurrentValue,
		review.ProposedValue,
	)

	return n.bot.SendReviewCard(ctx, n.chatID, text, review.ID)
}
