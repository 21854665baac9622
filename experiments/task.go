// Package experiments - движки измерений: вложенная развертка напряжений,
// сканирование столиком и параметрическая развертка вокруг сканирования.
//
// Каждый прогон выполняется в своей горутине и останавливается кооперативно:
// флаг остановки проверяется только между точками, кривыми и строками.
package experiments

import "sync/atomic"

// Token - флаг кооперативной остановки. Остановка родителя видна всем потомкам.
type Token struct {
	parent  *Token
	stopped atomic.Bool
}

func NewToken() *Token { return &Token{} }

// Child создает дочерний токен. Для nil-получателя возвращает независимый токен.
func (t *Token) Child() *Token {
	return &Token{parent: t}
}

func (t *Token) Stop() {
	if t != nil {
		t.stopped.Store(true)
	}
}

// Running сообщает, что ни этот токен, ни один из его родителей не остановлен.
func (t *Token) Running() bool {
	for c := t; c != nil; c = c.parent {
		if c.stopped.Load() {
			return false
		}
	}
	return true
}

// Task - дескриптор фонового прогона.
type Task struct {
	token *Token
	done  chan struct{}
	err   error
}

// Go запускает fn в отдельной горутине с токеном, дочерним к parent.
func Go(parent *Token, fn func(tok *Token) error) *Task {
	t := &Task{token: parent.Child(), done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.err = fn(t.token)
	}()
	return t
}

// Wait блокирует до завершения прогона и возвращает его ошибку.
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

func (t *Task) Done() <-chan struct{} { return t.done }

// Stop запрашивает остановку; прогон завершится после текущего шага.
func (t *Task) Stop() { t.token.Stop() }

// Stopped - была ли запрошена остановка (напрямую или через родителя).
func (t *Task) Stopped() bool { return !t.token.Running() }

// Err возвращает ошибку завершившегося прогона и nil, пока он выполняется.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

func (t *Task) Token() *Token { return t.token }
