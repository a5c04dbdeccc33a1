package dice

// Glossary explains the terms used in DICE documentation and tools.
var Glossary = map[string]string{
	"Batch":       "The batch system, e.g. PBS, LSF, SLURM, SGE, HTCondor, etc.",
	"CE":          "Computing Element",
	"CLI":         "Command Line Interface",
	"DICE":        "Data Intensive Computing Environment",
	"FTS":         "File Transfer Service",
	"HDFS":        "Hadoop Distributed File System",
	"scheduler":   "The node that schedules jobs for the batch system (see 'dice info schedulers')",
	"SE":          "Storage Element",
	"worker node": "the node that executes the batch job (see 'dice info workers')",
}

// Explain returns the glossary entry for term and whether there is one.
func Explain(term string) (string, bool) {
	explanation, ok := Glossary[term]
	return explanation, ok
}
