// Package iocli ввод и вывод CLI клиента.
package iocli

// IO терминал клиента: вывод, ввод строки и ввод пароля без эха
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	Write(p []byte) (n int, err error)
}
