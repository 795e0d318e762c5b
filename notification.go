package pomostudy

type Notification struct {
	Title string
	Body  string
}

// NotificationFor returns the message shown when an interval of type completed runs out.
func NotificationFor(completed IntervalType) Notification {
	if completed == WorkInterval {
		return Notification{
			Title: "Pomodoro complete!",
			Body:  "Time for a break!",
		}
	}
	return Notification{
		Title: "Break is over!",
		Body:  "Time to focus again!",
	}
}
