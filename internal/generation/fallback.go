package generation

import (
	"strings"

	"github.com/jackzampolin/docgen/internal/types"
)

// fallbackTitles is the generic outline used when the backend cannot
// produce one. The first entry is formatted with the topic.
var fallbackTitles = []string{
	"Introduction to %s",
	"Fundamental Concepts",
	"Core Principles",
	"Practical Applications",
	"Advanced Techniques",
	"Case Studies and Examples",
	"Best Practices",
	"Tools and Technologies",
	"Implementation Strategies",
	"Future Trends",
	"Troubleshooting",
	"Conclusion and Next Steps",
}

// FallbackOutline returns a deterministic outline of exactly n titles.
// Beyond the fixed list it continues with "Advanced Topic 1", "Advanced Topic 2", ...
func FallbackOutline(topic string, n int) []string {
	if n <= 0 {
		return []string{}
	}
	titles := make([]string, 0, n)
	for i := 0; i < n; i++ {
		switch {
		case i == 0:
			titles = append(titles, "Introduction to "+topic)
		case i < len(fallbackTitles):
			titles = append(titles, fallbackTitles[i])
		default:
			titles = append(titles, placeholderTitle(i-len(fallbackTitles)+1))
		}
	}
	return titles
}

var complexityIntros = map[types.Complexity]string{
	types.ComplexityBeginner:     "This chapter introduces the basic concepts and provides a foundation for understanding.",
	types.ComplexityIntermediate: "Building on previous knowledge, this chapter explores the topic in greater detail.",
	types.ComplexityAdvanced:     "This advanced chapter provides in-depth analysis and technical implementation details.",
}

const (
	firstChapterContext = "This introductory chapter sets the foundation for all subsequent learning."
	laterChapterContext = "This chapter builds upon concepts from previous chapters and prepares for advanced topics ahead."
)

const fallbackChapterTmpl = `\section{{TITLE}}

{INTRO} {CONTEXT}

\subsection{Overview}
This section covers the fundamental aspects of {TITLE} as it relates to {TOPIC}. The concepts presented here are essential for building a comprehensive understanding of the subject matter.

\subsection{Key Concepts}
The main ideas and principles that form the foundation of this topic area include:
\begin{itemize}
\item Fundamental principle of {LOWER}
\item Core methodologies and approaches
\item Essential terminology and definitions
\item Practical implementation considerations
\end{itemize}

\subsection{Detailed Analysis}
A deeper examination of {TITLE} reveals several important aspects that are crucial for mastery of {TOPIC}. These concepts form the building blocks for more advanced understanding.

\subsection{Practical Applications}
Real-world applications and examples demonstrate how these concepts are used in practice:
\begin{enumerate}
\item Industry applications and use cases
\item Common implementation patterns
\item Best practices and recommendations
\item Troubleshooting and optimization strategies
\end{enumerate}

\subsection{Exercises and Practice}
\begin{itemize}
\item Review the key concepts presented in this chapter
\item Consider how {LOWER} applies to your specific context
\item Identify potential applications in your field of interest
\item Prepare for the concepts that will be introduced in upcoming chapters
\end{itemize}

\subsection{Summary}
This chapter has provided a comprehensive overview of {TITLE}, covering the essential aspects needed for understanding more advanced topics. The foundation established here will be built upon in subsequent chapters as we delve deeper into the complexities of {TOPIC}.

\textbf{Key Takeaways:}
\begin{itemize}
\item Understanding of core {LOWER} principles
\item Awareness of practical applications and use cases
\item Preparation for advanced concepts in later chapters
\item Foundation for hands-on implementation
\end{itemize}
`

// FallbackChapter returns the fixed chapter template for title.
// The placeholders are substituted in a single pass so a title or topic
// that itself contains "{TOPIC}" is left untouched.
func FallbackChapter(topic, title string, complexity types.Complexity, index int) string {
	context := laterChapterContext
	if index == 1 {
		context = firstChapterContext
	}
	r := strings.NewReplacer(
		"{TITLE}", title,
		"{LOWER}", strings.ToLower(title),
		"{TOPIC}", topic,
		"{INTRO}", complexityIntros[complexity],
		"{CONTEXT}", context,
	)
	return r.Replace(fallbackChapterTmpl)
}
