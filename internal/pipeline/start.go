package pipeline

import (
	"github.com/gruntwork-io/imgopen/internal/source"
)

// Start seeds the root session of job with files and uris. Without openers every registered opener applies.
//
// Sibling search is enabled when a single file and no uri is opened. A directory never yields images
// directly, so opening one only recurses into it.
func Start(job *Job, files, uris []string, openers ...Opener) (*Session, error) {
	root := job.NewSession(nil, nil, openers...)
	root.searchSiblings = job.cfg.SearchSiblings && len(files) == 1 && len(uris) == 0

	srcs := make([]*source.Source, 0, len(files)+len(uris))

	for _, path := range files {
		srcs = append(srcs, job.newRootSource(source.NewFile(path, nil)))
	}

	for _, uri := range uris {
		srcs = append(srcs, job.newRootSource(source.NewURI(uri, nil)))
	}

	if err := job.Enqueue(root, srcs...); err != nil {
		return nil, err
	}

	return root, nil
}

func (job *Job) newRootSource(src *source.Source) *source.Source {
	src.Logger = job.logger

	return src
}
