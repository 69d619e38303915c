package buildspec

import "fmt"

// modName derives the canonical module name for a (name, version, suffix,
// toolchain) tuple. System-toolchain units carry no toolchain segment:
//
//	gzip/1.4            (system toolchain)
//	OpenMPI/1.6.4-GCC-4.7.2
//	OpenBLAS/0.2.6-gompi-1.4.10-LAPACK-3.4.2  (suffix "-LAPACK-3.4.2")
func modName(name, version, suffix string, tc Toolchain) string {
	if tc.System {
		return fmt.Sprintf("%s/%s%s", name, version, suffix)
	}
	return fmt.Sprintf("%s/%s-%s-%s%s", name, version, tc.Name, tc.Version, suffix)
}

// ModName derives the full module name this dependency descriptor would
// resolve to.
func (d Dependency) ModName() string {
	return modName(d.Name, d.Version, d.VersionSuffix, d.Toolchain)
}

// FileName derives the conventional buildspec file name for this
// descriptor, used when scanning search roots:
//
//	gzip-1.4.bs.hcl
//	gzip-1.4-GCC-4.6.3.bs.hcl
func (d Dependency) FileName() string {
	if d.Toolchain.System {
		return fmt.Sprintf("%s-%s%s%s", d.Name, d.Version, d.VersionSuffix, FileSuffix)
	}
	return fmt.Sprintf("%s-%s-%s-%s%s%s",
		d.Name, d.Version, d.Toolchain.Name, d.Toolchain.Version, d.VersionSuffix, FileSuffix)
}

// FileSuffix is the extension of buildspec files on disk.
const FileSuffix = ".bs.hcl"

// DeriveModNames fills in FullModName and ShortModName from the spec's own
// fields when the loader or caller has not set them.
func (s *Spec) DeriveModNames() {
	if s.FullModName == "" {
		s.FullModName = modName(s.Name, s.Version, s.VersionSuffix, s.Toolchain)
	}
	if s.ShortModName == "" {
		s.ShortModName = s.FullModName
	}
}
