package worker

import "sync"

type taskStop struct{}

type Task interface{}

// Worker owns a bounded FIFO task channel drained by a single goroutine.
// Senders block when the channel is full, which bounds the number of
// in-flight tasks.
type Worker struct {
	name     string
	sender   chan<- Task
	receiver <-chan Task
	wg       *sync.WaitGroup
}

type TaskHandler interface {
	Handle(t Task)
}

// Recoverer receives panics raised while handling a task. Implementations
// are expected not to return control to normal processing.
type Recoverer interface {
	OnPanic(t Task, recovered interface{})
}

func (w *Worker) Start(handler TaskHandler) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			task := <-w.receiver
			if _, ok := task.(taskStop); ok {
				return
			}
			w.handle(handler, task)
		}
	}()
}

func (w *Worker) handle(handler TaskHandler, task Task) {
	defer func() {
		if r := recover(); r != nil {
			if rec, ok := handler.(Recoverer); ok {
				rec.OnPanic(task, r)
			} else {
				panic(r)
			}
		}
	}()
	handler.Handle(task)
}

func (w *Worker) Sender() chan<- Task {
	return w.sender
}

func (w *Worker) Stop() {
	w.sender <- taskStop{}
}

const defaultWorkerCapacity = 128

func NewWorker(name string, capacity int, wg *sync.WaitGroup) *Worker {
	if capacity <= 0 {
		capacity = defaultWorkerCapacity
	}
	ch := make(chan Task, capacity)
	return &Worker{
		sender:   (chan<- Task)(ch),
		receiver: (<-chan Task)(ch),
		name:     name,
		wg:       wg,
	}
}
