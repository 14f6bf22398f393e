package common

// File permission constants used for generated artifacts
const (
	// FilePermissionSecure is used for config.yaml
	FilePermissionSecure = 0600

	// FilePermissionNormal is used for CSV artifacts and reports
	FilePermissionNormal = 0644

	// DirPermissionNormal is used for data directories
	DirPermissionNormal = 0755
)
