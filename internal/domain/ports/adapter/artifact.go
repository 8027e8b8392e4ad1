package adapter

// ArtifactWriter packages a finished workspace for delivery.
type ArtifactWriter interface {
	// CopyWorkspaceToOutput mirrors the workspace tree into the output
	// directory, creating directories as needed, and returns the number
	// of files copied.
	CopyWorkspaceToOutput(workspaceDir, outputDir string) (int, error)

	// CreateZipArchive packages outputDir into a zip at archivePath.
	CreateZipArchive(outputDir, archivePath string) error
}
