// Package cloud builds AWS SDK configuration from the ambient credential chain.
package cloud
