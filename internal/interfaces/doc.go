// Package interfaces documents the extension points of the library service and
// holds their compile-time checks.
//
// # Interface Categories
//
// ## Circulation
//
//   - circulation.Observer: receives committed issues, returns, renewals and
//     purges (internal/circulation/workflow.go). The audit trail and the
//     Prometheus collector both implement it.
//   - circulation.EligibilityHook: vetoes an issue before any copy leaves the
//     shelf.
//   - ids.Generator: record and entity identifiers (internal/ids/ids.go).
//
// ## Background Work
//
//   - tasks.OverdueSource, tasks.InventoryResyncer, tasks.SnapshotBackuper and
//     tasks.AuditEventCleaner: what the queues run against
//     (internal/tasks/*.go).
//   - scheduler.Enqueuer: where cron jobs put their tasks.
//   - notify.Notifier: delivers overdue reminders (internal/notify/notify.go).
//
// ## Storage
//
//   - storage.Client: snapshot storage for backups (internal/storage/client.go).
//
// # Adding a Reminder Channel
//
// To send overdue reminders by email instead of the log:
//
//  1. Implement notify.Notifier in internal/notify/
//
//     type SMTPNotifier struct {
//         addr string
//         from string
//     }
//
//     func (n *SMTPNotifier) Notify(ctx context.Context, r Reminder) error {
//         // r.Subject() and r.Body() are ready to send
//     }
//
//  2. Pass it as tasks.Deps.Notifier in entrypoint.go
//
// # Adding a Backup Provider
//
//  1. Create internal/storage/providers/<name>/ with a Client that implements
//     storage.Client.
//
//  2. Add a config.BackupProvider constant and a case in backup.OpenStorage.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the current list.
package interfaces
