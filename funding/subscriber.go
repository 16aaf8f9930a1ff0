package funding

// Subscriber handles session event subscriptions.
type Subscriber struct {
	done                     chan struct{}
	connectedHandler         func(Connected)
	disconnectedHandler      func(SessionDisconnected)
	viewReloadedHandler      func(ViewReloaded)
	reloadFailedHandler      func(ReloadFailed)
	workflowCompletedHandler func(WorkflowCompleted)
	workflowFailedHandler    func(WorkflowFailed)
	watchStoppedHandler      func(WatchStopped)
}

// OnConnected sets the handler for Connected events
func OnConnected(fn func(Connected)) func(*Subscriber) {
	return func(s *Subscriber) { s.connectedHandler = fn }
}

// OnDisconnected sets the handler for SessionDisconnected events
func OnDisconnected(fn func(SessionDisconnected)) func(*Subscriber) {
	return func(s *Subscriber) { s.disconnectedHandler = fn }
}

// OnViewReloaded sets the handler for ViewReloaded events
func OnViewReloaded(fn func(ViewReloaded)) func(*Subscriber) {
	return func(s *Subscriber) { s.viewReloadedHandler = fn }
}

// OnReloadFailed sets the handler for ReloadFailed events
func OnReloadFailed(fn func(ReloadFailed)) func(*Subscriber) {
	return func(s *Subscriber) { s.reloadFailedHandler = fn }
}

// OnWorkflowCompleted sets the handler for WorkflowCompleted events
func OnWorkflowCompleted(fn func(WorkflowCompleted)) func(*Subscriber) {
	return func(s *Subscriber) { s.workflowCompletedHandler = fn }
}

// OnWorkflowFailed sets the handler for WorkflowFailed events
func OnWorkflowFailed(fn func(WorkflowFailed)) func(*Subscriber) {
	return func(s *Subscriber) { s.workflowFailedHandler = fn }
}

// OnWatchStopped sets the handler for WatchStopped events
func OnWatchStopped(fn func(WatchStopped)) func(*Subscriber) {
	return func(s *Subscriber) { s.watchStoppedHandler = fn }
}

// NewSubscriber creates a Subscriber with the given options and starts the
// dispatch loop. Returns a closer function that waits for all events to be
// processed.
//
// The subscriber processes events until the events channel closes, then the
// closer function confirms all processing is complete:
//
//	closer := funding.NewSubscriber(events,
//	  funding.OnViewReloaded(func(e ViewReloaded) { ... }),
//	)
//	defer closer()
func NewSubscriber(events <-chan Event, opts ...func(*Subscriber)) func() {
	s := &Subscriber{
		done:                     make(chan struct{}),
		connectedHandler:         func(Connected) {},           // nop by default
		disconnectedHandler:      func(SessionDisconnected) {}, // nop by default
		viewReloadedHandler:      func(ViewReloaded) {},        // nop by default
		reloadFailedHandler:      func(ReloadFailed) {},        // nop by default
		workflowCompletedHandler: func(WorkflowCompleted) {},   // nop by default
		workflowFailedHandler:    func(WorkflowFailed) {},      // nop by default
		watchStoppedHandler:      func(WatchStopped) {},        // nop by default
	}

	for _, opt := range opts {
		opt(s)
	}

	// Start the dispatch loop immediately
	go func() {
		defer close(s.done)
		for ev := range events {
			switch e := ev.(type) {
			case Connected:
				s.connectedHandler(e)
			case SessionDisconnected:
				s.disconnectedHandler(e)
			case ViewReloaded:
				s.viewReloadedHandler(e)
			case ReloadFailed:
				s.reloadFailedHandler(e)
			case WorkflowCompleted:
				s.workflowCompletedHandler(e)
			case WorkflowFailed:
				s.workflowFailedHandler(e)
			case WatchStopped:
				s.watchStoppedHandler(e)
			}
		}
	}()

	return func() {
		<-s.done
	}
}
