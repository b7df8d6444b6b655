package mail

type Message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	Body    string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string

	dial func(host string, port int, user, password string) Dialer
}
