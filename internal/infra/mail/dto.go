package mail

type OutreachEmailData struct {
	Paragraphs []string
	SenderName string
}

type Config struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	From       string `yaml:"from"`
	SenderName string `yaml:"sender_name"`
}
