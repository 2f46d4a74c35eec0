/*
Package filesystem wraps the handful of os calls the media store needs
(stat, read, write, mkdir, remove) with retry logic for NFS stale file
handle errors (ESTALE).

Non-ESTALE errors are returned immediately. ESTALE is retried with
exponential backoff capped at RetryConfig.MaxBackoff:

	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())

Every call is reported to the package Observer, labelled with
RetryConfig.Volume. storage.Store sets it to the store name. The observer
is installed once at startup:

	filesystem.SetObserver(metrics.NewFilesystemObserver())
*/
package filesystem
