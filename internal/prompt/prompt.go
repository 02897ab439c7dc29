// Package prompt holds the fixed prompt templates and the deterministic
// assembly of grounded prompts from retrieved passages.
package prompt

import (
	"fmt"
	"strings"

	"yt-transcript-rag/internal/models"
)

const ragTemplate = `You are an AI assistant analyzing YouTube video transcripts. Your task is to answer questions based on the provided transcript context.

Context from transcript:
%s

User Question: %s

Please provide a clear, concise answer based only on the information given in the context. If the context doesn't contain enough information to fully answer the question, acknowledge this in your response.

Guidelines:
1. Use only information from the provided context
2. Be specific and direct in your answer
3. If context is insufficient, say so
4. Maintain accuracy and avoid speculation
5. Use natural, conversational language`

// Build assembles a grounded prompt from the question and the retrieved
// passages, in the order given. Zero passages still yields a valid prompt;
// the instructions make the model acknowledge missing context.
func Build(question string, passages []models.RetrievedPassage) string {
	contents := make([]string, 0, len(passages))
	for _, p := range passages {
		contents = append(contents, p.Chunk.Content)
	}
	context := strings.Join(contents, "\n")
	return fmt.Sprintf(ragTemplate, context, question)
}

const cotTemplate = `Rewrite the following query using chain-of-thought reasoning:

Query: %s

Rewritten query:`

// ChainOfThoughtRewrite wraps a query in the chain-of-thought rewrite
// template.
func ChainOfThoughtRewrite(query string) string {
	return fmt.Sprintf(cotTemplate, query)
}

const reactTemplate = `Rewrite the following query using ReAct (Reasoning and Acting) approach:

Query: %s

Rewritten query:`

// ReActRewrite wraps a query in the ReAct rewrite template.
func ReActRewrite(query string) string {
	return fmt.Sprintf(reactTemplate, query)
}

const groundTruthTemplate = `You are an AI assistant tasked with generating questions based on a YouTube video transcript.
Formulate atleast 10 questions that a user might ask based on the provided transcript.
Make the questions specific to the content of the transcript.
The questions should be complete and not too short. Use as few words as possible from the transcript.
It is important that the questions are relevant to the content of the transcript and are atleast 10 in number.

The transcript:

%s

Provide the output in parsable JSON without using code blocks:

{"questions": ["question1", "question2", ..., "question10"]}`

// GroundTruth wraps a full transcript in the question-generation template.
func GroundTruth(transcript string) string {
	return fmt.Sprintf(groundTruthTemplate, transcript)
}

const judgeTemplate = `You are an expert evaluator for a Youtube transcript assistant.
Your task is to analyze the relevance of the generated answer to the given question.
Based on the relevance of the generated answer, you will classify it
as "NON_RELEVANT", "PARTLY_RELEVANT", or "RELEVANT".

Here is the data for evaluation:

Question: %s
Generated Answer: %s

Please analyze the content and context of the generated answer in relation to the question
and provide your evaluation in parsable JSON without using code blocks:

{
  "Relevance": "NON_RELEVANT" | "PARTLY_RELEVANT" | "RELEVANT",
  "Explanation": "[Provide a brief explanation for your evaluation]"
}`

// Judge wraps a (question, answer) pair in the relevance-judging template.
func Judge(question, answer string) string {
	return fmt.Sprintf(judgeTemplate, question, answer)
}
