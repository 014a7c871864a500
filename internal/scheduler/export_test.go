package scheduler

// runScheduled executes the registered job through the cron chain.
func (s *Scheduler) runScheduled() {
	s.cron.Entry(s.entry).WrappedJob.Run()
}
