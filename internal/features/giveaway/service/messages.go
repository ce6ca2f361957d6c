package service

import "fmt"

func reminderText(title string) string {
	return fmt.Sprintf("⏰ Heads up!\n\nThe giveaway “%s” closes in 1 hour!", title)
}

func closedText(title string) string {
	return fmt.Sprintf("🎉 GIVEAWAY: %s\n\n⏰ Registration is over!\nThe winner will be picked by the operator.", title)
}

func winnerDirectText(title string) string {
	return fmt.Sprintf("🎉 Congratulations!\n\nYou won:\n%s\n\nContact the operator to claim your prize!", title)
}

func winnerAnnouncementText(title, winnerName string, winnerID int64) string {
	return fmt.Sprintf("🎉 GIVEAWAY: %s\n\n🏆 Winner: %s (ID: %d)\n\nThe giveaway has ended!", title, winnerName, winnerID)
}

// AnnouncementText is the public channel post body.
func AnnouncementText(title, durationToken string) string {
	return fmt.Sprintf("🎉 GIVEAWAY: %s\n⏰ Closes in: %s\n\nTap the button below to join 👇", title, durationToken)
}

// AnnouncementWithCountText replaces the post body once people start
// joining.
func AnnouncementWithCountText(title string, count int64) string {
	return fmt.Sprintf("🎉 GIVEAWAY: %s\n\n👥 Participants: %d\n\nTap the button below to join 👇", title, count)
}
